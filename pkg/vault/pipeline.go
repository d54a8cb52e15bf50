package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appmetrics "github.com/xhedge/vault-middleware/internal/metrics"
	"github.com/xhedge/vault-middleware/pkg/network"
	"github.com/xhedge/vault-middleware/pkg/wallet"
)

var (
	ErrOperationInFlight  = errors.New("another operation is already in progress")
	ErrMetricsUnavailable = errors.New("unable to fetch vault information")
)

// SessionSigner is the wallet surface the pipeline needs: the current
// session and the ability to hand an envelope to the signer.
type SessionSigner interface {
	Snapshot() wallet.Session
	Sign(ctx context.Context, envelope, passphrase string) (string, error)
}

// Pipeline drives one vault operation end to end: validate, build, assemble,
// sign, submit, refresh. Operations are strictly serialized; a second request
// while one is in flight is rejected, never queued.
type Pipeline struct {
	session    SessionSigner
	builder    *Builder
	assembler  *Assembler
	submitter  *Submitter
	reader     *Reader
	registry   *network.Registry
	contractID string
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight bool
}

func NewPipeline(
	session SessionSigner,
	builder *Builder,
	assembler *Assembler,
	submitter *Submitter,
	reader *Reader,
	registry *network.Registry,
	contractID string,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		session:    session,
		builder:    builder,
		assembler:  assembler,
		submitter:  submitter,
		reader:     reader,
		registry:   registry,
		contractID: contractID,
		logger:     logger,
	}
}

// Run executes a single operation. It fails fast with ErrOperationInFlight if
// another run holds the pipeline.
func (p *Pipeline) Run(ctx context.Context, kind OperationKind, amount string) (*Receipt, error) {
	if !p.acquire() {
		appmetrics.OperationsTotal.WithLabelValues(string(kind), "busy").Inc()
		return nil, ErrOperationInFlight
	}
	defer p.release()

	receipt, err := p.run(ctx, kind, amount)
	if err != nil {
		appmetrics.OperationsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, err
	}
	appmetrics.OperationsTotal.WithLabelValues(string(kind), "success").Inc()
	return receipt, nil
}

func (p *Pipeline) run(ctx context.Context, kind OperationKind, amount string) (*Receipt, error) {
	sess := p.session.Snapshot()
	if sess.State != wallet.StateConnected {
		return nil, wallet.ErrNotConnected
	}

	// A malformed amount must never cost a network round trip. Only the
	// insufficient-funds check below needs the fetched snapshot.
	if _, err := ParseAmount(amount); err != nil {
		return nil, err
	}

	snap := p.reader.FetchMetrics(ctx, sess.Address)
	if snap.Failed() {
		return nil, fmt.Errorf("%w: %s", ErrMetricsUnavailable, snap.Err)
	}

	// Withdrawals are bounded by vault shares, deposits by the asset balance.
	available := snap.UserBalance
	if kind == KindWithdraw {
		available = snap.UserShares
	}
	if err := ValidateAmount(amount, available); err != nil {
		return nil, err
	}

	op := &PendingOperation{
		ID:          uuid.NewString(),
		Kind:        kind,
		AmountRaw:   amount,
		ContractID:  p.contractID,
		UserAddress: sess.Address,
		Network:     sess.Network,
	}
	p.logger.Info("starting vault operation",
		zap.String("operation_id", op.ID),
		zap.String("kind", string(kind)),
		zap.String("address", sess.Address),
	)

	var unsigned string
	err := timedStage("build", func() error {
		var err error
		unsigned, err = p.builder.BuildOperation(ctx, op)
		return err
	})
	if err != nil {
		return nil, err
	}

	var assembled *AssembleResult
	err = timedStage("assemble", func() error {
		var err error
		assembled, err = p.assembler.Assemble(ctx, unsigned)
		return err
	})
	if err != nil {
		return nil, err
	}

	var signed string
	err = timedStage("sign", func() error {
		var err error
		signed, err = p.session.Sign(ctx, assembled.Envelope, p.registry.Passphrase(sess.Network))
		return err
	})
	if err != nil {
		return nil, err
	}

	var hash string
	err = timedStage("submit", func() error {
		var err error
		hash, err = p.submitter.Submit(ctx, signed)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Re-query rather than adjusting cached numbers locally; the chain is the
	// source of truth for post-operation balances.
	refreshed := p.reader.FetchMetrics(ctx, sess.Address)

	p.logger.Info("vault operation confirmed",
		zap.String("operation_id", op.ID),
		zap.String("hash", hash),
		zap.Int64("fee_paid", assembled.EstimatedFee),
	)
	return &Receipt{
		OperationID: op.ID,
		Kind:        kind,
		Hash:        hash,
		FeePaid:     assembled.EstimatedFee,
		Metrics:     refreshed,
	}, nil
}

func (p *Pipeline) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

func (p *Pipeline) release() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

func timedStage(stage string, f func() error) error {
	start := time.Now()
	err := f()
	appmetrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return err
}
