package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/internal/metrics"
	"github.com/xhedge/vault-middleware/pkg/sorobanrpc"
)

var ErrSubmissionTimeout = errors.New("timed out waiting for transaction confirmation")

// SubmissionError reports a rejection from the node, either at broadcast or
// at confirmation. Code is the node's own status or result code.
type SubmissionError struct {
	Code   string
	Detail string
}

func (e *SubmissionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("transaction rejected: %s", e.Code)
	}
	return fmt.Sprintf("transaction rejected: %s (%s)", e.Code, e.Detail)
}

// Broadcaster sends signed envelopes and reports their confirmation status.
type Broadcaster interface {
	SendTransaction(ctx context.Context, envelope string) (*sorobanrpc.SendResult, error)
	GetTransaction(ctx context.Context, hash string) (*sorobanrpc.TransactionResult, error)
}

// Submitter broadcasts signed envelopes exactly once and polls for
// confirmation. It never re-broadcasts on its own: an ambiguous outcome is
// surfaced to the caller rather than retried into a double spend.
type Submitter struct {
	node         Broadcaster
	timeout      time.Duration
	pollInterval time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewSubmitter(node Broadcaster, timeout, pollInterval time.Duration, logger *zap.Logger) *Submitter {
	return &Submitter{
		node:         node,
		timeout:      timeout,
		pollInterval: pollInterval,
		now:          time.Now,
		logger:       logger,
	}
}

// Submit broadcasts the signed envelope and waits for confirmation, returning
// the transaction hash on success. An expired validity window fails
// deterministically before anything reaches the network.
func (s *Submitter) Submit(ctx context.Context, signed string) (string, error) {
	env, err := DecodeEnvelope(signed)
	if err != nil {
		return "", err
	}
	if err := env.requireStage(StageSigned); err != nil {
		return "", err
	}
	if len(env.Signatures) == 0 {
		return "", ErrMissingSignature
	}
	if env.Expired(s.now()) {
		metrics.SubmissionsTotal.WithLabelValues("expired").Inc()
		return "", ErrEnvelopeExpired
	}

	result, err := s.node.SendTransaction(ctx, signed)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("broadcast transaction: %w", err)
	}

	switch result.Status {
	case sorobanrpc.SendStatusPending:
		// fall through to confirmation polling
	case sorobanrpc.SendStatusDuplicate:
		metrics.SubmissionsTotal.WithLabelValues("duplicate").Inc()
		return "", &SubmissionError{Code: result.Status}
	default:
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return "", &SubmissionError{Code: result.Status, Detail: result.ErrorResult}
	}

	hash, err := s.awaitConfirmation(ctx, result.Hash)
	if err != nil {
		return "", err
	}
	metrics.SubmissionsTotal.WithLabelValues("confirmed").Inc()
	s.logger.Info("transaction confirmed", zap.String("hash", hash))
	return hash, nil
}

func (s *Submitter) awaitConfirmation(ctx context.Context, hash string) (string, error) {
	deadline := time.NewTimer(s.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			metrics.SubmissionsTotal.WithLabelValues("timeout").Inc()
			return "", ErrSubmissionTimeout
		case <-ticker.C:
			result, err := s.node.GetTransaction(ctx, hash)
			if err != nil {
				// Transient poll failures are tolerated until the deadline.
				s.logger.Warn("confirmation poll failed", zap.String("hash", hash), zap.Error(err))
				continue
			}
			switch result.Status {
			case sorobanrpc.TxStatusSuccess:
				return hash, nil
			case sorobanrpc.TxStatusFailed:
				metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
				return "", &SubmissionError{Code: result.ResultCode}
			}
		}
	}
}
