// Package vault implements the deposit and withdrawal pipeline against the
// stablecoin vault contract: amount validation, envelope construction,
// simulation, signing hand-off and submission, plus on-chain metric reads.
package vault

import (
	"time"

	"github.com/xhedge/vault-middleware/pkg/network"
)

// OperationKind distinguishes the two vault operations.
type OperationKind string

const (
	KindDeposit  OperationKind = "deposit"
	KindWithdraw OperationKind = "withdraw"
)

// PendingOperation carries one user request through the pipeline. AmountRaw
// keeps the exact string the user typed; AmountScaled is filled in once the
// builder has parsed it.
type PendingOperation struct {
	ID           string
	Kind         OperationKind
	AmountRaw    string
	AmountScaled int64
	ContractID   string
	UserAddress  string
	Network      network.ID
}

// Metrics is a point-in-time snapshot of vault state. All values are raw
// units at the fixed scale. A partially failed fetch still produces a
// snapshot; Err carries the first failure so callers can flag staleness
// instead of rendering zeros as truth.
type Metrics struct {
	TotalAssets int64  `json:"totalAssets"`
	TotalShares int64  `json:"totalShares"`
	SharePrice  int64  `json:"sharePrice"`
	UserBalance int64  `json:"userBalance"`
	UserShares  int64  `json:"userShares"`
	Err         string `json:"error,omitempty"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// Failed reports whether the snapshot is degraded.
func (m *Metrics) Failed() bool { return m.Err != "" }

// Receipt is the result of a completed pipeline run.
type Receipt struct {
	OperationID string        `json:"operationId"`
	Kind        OperationKind `json:"kind"`
	Hash        string        `json:"hash"`
	FeePaid     int64         `json:"feePaid"`
	Metrics     *Metrics      `json:"metrics,omitempty"`
}
