package vault

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appmetrics "github.com/xhedge/vault-middleware/internal/metrics"
	"github.com/xhedge/vault-middleware/pkg/sorobanrpc"
)

// Contract storage keys holding vault aggregates.
const (
	keyTotalAssets = "total_assets"
	keyTotalShares = "total_shares"
	sharePrefix    = "shares:"
)

// ContractReader reads single storage entries from the vault contract.
type ContractReader interface {
	GetContractData(ctx context.Context, contract, key string) (*sorobanrpc.ContractDataResult, error)
}

// Reader produces vault metric snapshots from contract storage and the user's
// ledger account.
type Reader struct {
	node        ContractReader
	accounts    AccountLoader
	contractID  string
	assetIssuer string
	logger      *zap.Logger
}

func NewReader(node ContractReader, accounts AccountLoader, contractID, assetIssuer string, logger *zap.Logger) *Reader {
	return &Reader{
		node:        node,
		accounts:    accounts,
		contractID:  contractID,
		assetIssuer: assetIssuer,
		logger:      logger,
	}
}

// FetchMetrics gathers the vault snapshot. It never fails outright: whatever
// could not be read stays zeroed and the first failure is recorded on the
// snapshot so callers can tell degraded data from an empty vault. userAddress
// may be empty, in which case the per-user fields are skipped.
func (r *Reader) FetchMetrics(ctx context.Context, userAddress string) *Metrics {
	snap := &Metrics{FetchedAt: nowUTC()}
	var firstErr error
	record := func(err error) {
		if firstErr == nil && err != nil {
			firstErr = err
		}
	}

	totalAssets, err := r.readInt(ctx, keyTotalAssets)
	record(err)
	snap.TotalAssets = totalAssets

	totalShares, err := r.readInt(ctx, keyTotalShares)
	record(err)
	snap.TotalShares = totalShares

	if totalShares > 0 {
		// Share price at the fixed scale: assets per share.
		snap.SharePrice = scaleRatio(totalAssets, totalShares)
	}

	if userAddress != "" {
		userShares, err := r.readInt(ctx, sharePrefix+userAddress)
		record(err)
		snap.UserShares = userShares

		balance, err := r.readUserBalance(ctx, userAddress)
		record(err)
		snap.UserBalance = balance
	}

	if firstErr != nil {
		snap.Err = firstErr.Error()
		appmetrics.MetricsRefreshes.WithLabelValues("error").Inc()
		r.logger.Warn("vault metrics fetch degraded", zap.Error(firstErr))
	} else {
		appmetrics.MetricsRefreshes.WithLabelValues("ok").Inc()
	}
	return snap
}

func (r *Reader) readInt(ctx context.Context, key string) (int64, error) {
	result, err := r.node.GetContractData(ctx, r.contractID, key)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	value := strings.TrimSpace(result.Value)
	if value == "" {
		// Unset storage entry reads as zero.
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s value %q: %w", key, result.Value, err)
	}
	return n, nil
}

func (r *Reader) readUserBalance(ctx context.Context, address string) (int64, error) {
	account, err := r.accounts.LoadAccount(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("load account balance: %w", err)
	}
	return ParseBalance(account.AssetBalance(r.assetIssuer))
}

func nowUTC() time.Time { return time.Now().UTC() }

// scaleRatio computes a*10^Scale/b truncated toward zero. The product is
// widened through decimal, so large vault totals cannot overflow the
// intermediate multiplication.
func scaleRatio(a, b int64) int64 {
	// 2*Scale+6 fractional digits keep the quotient exact to well below the
	// smallest representable remainder before truncation.
	ratio := decimal.New(a, Scale).DivRound(decimal.New(b, 0), 2*Scale+6)
	return ratio.Truncate(0).IntPart()
}

// ValidateAmount applies the deterministic pre-flight checks for an operation
// amount against the funds available to the user: asset balance for deposits,
// vault shares for withdrawals. Checks run in a fixed order and the first
// failure wins, so callers always see the most fundamental problem first.
func ValidateAmount(amount string, availableRaw int64) error {
	if strings.TrimSpace(amount) == "" {
		return ErrEmptyAmount
	}
	scaled, err := ParseAmount(amount)
	if err != nil {
		return err
	}
	if scaled > availableRaw {
		return ErrInsufficientFunds
	}
	return nil
}
