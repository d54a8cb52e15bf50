package vault

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/pkg/horizon"
)

var (
	ErrInvalidAmount     = errors.New("invalid operation amount")
	ErrInvalidKind       = errors.New("unknown operation kind")
	ErrAccountLoadFailed = errors.New("failed to load source account")
)

// AccountLoader fetches account state needed to anchor an envelope.
type AccountLoader interface {
	LoadAccount(ctx context.Context, address string) (*horizon.Account, error)
}

// Builder constructs unsigned envelopes for vault operations. Building never
// talks to the transaction node; its only network dependency is the account
// lookup for the sequence number.
type Builder struct {
	accounts AccountLoader
	baseFee  int64
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewBuilder creates a builder. baseFee is the inclusion fee in raw units and
// ttl bounds the envelope validity window.
func NewBuilder(accounts AccountLoader, baseFee int64, ttl time.Duration, logger *zap.Logger) *Builder {
	return &Builder{
		accounts: accounts,
		baseFee:  baseFee,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// BuildOperation validates the request, loads the source account and returns
// an encoded unsigned envelope. The operation's AmountScaled is filled in as
// a side effect.
func (b *Builder) BuildOperation(ctx context.Context, op *PendingOperation) (string, error) {
	scaled, err := ParseAmount(op.AmountRaw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	op.AmountScaled = scaled

	args, function, err := invocationFor(op)
	if err != nil {
		return "", err
	}

	account, err := b.accounts.LoadAccount(ctx, op.UserAddress)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAccountLoadFailed, err)
	}

	env := &Envelope{
		Stage:    StageUnsigned,
		Network:  op.Network,
		Source:   op.UserAddress,
		Sequence: account.Sequence + 1,
		BaseFee:  b.baseFee,
		Invocation: Invocation{
			Contract: op.ContractID,
			Function: function,
			Args:     args,
		},
		ValidUntil: b.now().Add(b.ttl),
	}

	b.logger.Debug("built unsigned envelope",
		zap.String("operation_id", op.ID),
		zap.String("kind", string(op.Kind)),
		zap.Int64("sequence", env.Sequence),
	)
	return env.Encode()
}

func invocationFor(op *PendingOperation) ([]ScVal, string, error) {
	amount := ScVal{Type: "i128", Value: strconv.FormatInt(op.AmountScaled, 10)}

	switch op.Kind {
	case KindDeposit:
		// deposit(from: address, amount: i128)
		return []ScVal{{Type: "address", Value: op.UserAddress}, amount}, "deposit", nil
	case KindWithdraw:
		// withdraw(shares: i128)
		return []ScVal{amount}, "withdraw", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidKind, op.Kind)
	}
}
