package vault

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/pkg/network"
)

var ErrEstimatorClosed = errors.New("fee estimator is closed")

// EstimateRequest describes the hypothetical operation to price.
type EstimateRequest struct {
	Kind        OperationKind
	Amount      string
	UserAddress string
	Network     network.ID
	ContractID  string
}

// Estimate is the outcome of a fee estimation.
type Estimate struct {
	Fee int64
	Err error
}

// FeeEstimator prices hypothetical operations with debouncing: a burst of
// requests collapses into one simulation after a quiet period, and a result
// is delivered only if no newer request superseded it. Stale results are
// discarded, never delivered out of order.
type FeeEstimator struct {
	builder   *Builder
	assembler *Assembler
	debounce  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	closed  bool
	pending sync.WaitGroup
}

func NewFeeEstimator(builder *Builder, assembler *Assembler, debounce time.Duration, logger *zap.Logger) *FeeEstimator {
	return &FeeEstimator{
		builder:   builder,
		assembler: assembler,
		debounce:  debounce,
		logger:    logger,
	}
}

// Request schedules an estimation. deliver is invoked at most once, and only
// if this request is still the latest when its result is ready.
func (f *FeeEstimator) Request(ctx context.Context, req EstimateRequest, deliver func(Estimate)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrEstimatorClosed
	}

	f.gen++
	gen := f.gen
	if f.timer != nil && f.timer.Stop() {
		// The superseded request never fired; settle its bookkeeping.
		f.pending.Done()
	}

	f.pending.Add(1)
	f.timer = time.AfterFunc(f.debounce, func() {
		defer f.pending.Done()
		f.estimate(ctx, gen, req, deliver)
	})
	return nil
}

func (f *FeeEstimator) estimate(ctx context.Context, gen uint64, req EstimateRequest, deliver func(Estimate)) {
	if f.stale(gen) {
		return
	}

	op := &PendingOperation{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		AmountRaw:   req.Amount,
		ContractID:  req.ContractID,
		UserAddress: req.UserAddress,
		Network:     req.Network,
	}

	var fee int64
	unsigned, err := f.builder.BuildOperation(ctx, op)
	if err == nil {
		var result *AssembleResult
		result, err = f.assembler.Assemble(ctx, unsigned)
		if err == nil {
			fee = result.EstimatedFee
		}
	}

	// Re-check after the network round trip; a newer request wins.
	if f.stale(gen) {
		return
	}
	if err != nil {
		f.logger.Debug("fee estimation failed", zap.Error(err))
	}
	deliver(Estimate{Fee: fee, Err: err})
}

func (f *FeeEstimator) stale(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed || gen != f.gen
}

// Close cancels any scheduled estimation and waits for an in-flight one to
// observe the shutdown. Further requests fail with ErrEstimatorClosed.
func (f *FeeEstimator) Close() {
	f.mu.Lock()
	f.closed = true
	if f.timer != nil && f.timer.Stop() {
		f.pending.Done()
	}
	f.mu.Unlock()
	f.pending.Wait()
}
