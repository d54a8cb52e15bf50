// Package wallet tracks the signer session: a small state machine over the
// external signer extension, with a single writer mutating state and
// concurrent readers taking snapshots.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/internal/metrics"
	"github.com/xhedge/vault-middleware/pkg/network"
)

// State is the wallet session lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

var (
	ErrSignerNotInstalled = errors.New("signer extension is not installed")
	ErrUserRejected       = errors.New("user declined the request")
	ErrNotConnected       = errors.New("wallet is not connected")
	ErrDeauthorized       = errors.New("signer authorization was revoked")
	ErrMalformedSignature = errors.New("signer returned a malformed envelope")
)

// SigningError reports a signer failure that is neither a user decline nor a
// revoked authorization.
type SigningError struct {
	Reason string
}

func (e *SigningError) Error() string { return "signing failed: " + e.Reason }

// Session is an immutable snapshot of the wallet state. Address and Network
// are set exactly when State is StateConnected.
type Session struct {
	State     State      `json:"state"`
	Address   string     `json:"address,omitempty"`
	Network   network.ID `json:"network,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

// Signer is the external signing extension. Implementations map their own
// failure modes onto this package's sentinels: ErrUserRejected for a decline,
// ErrDeauthorized for revoked access.
type Signer interface {
	// IsConnected reports whether the extension is installed and reachable.
	IsConnected(ctx context.Context) (bool, error)
	// GetPublicKey returns the authorized address, or empty if this
	// application has not been granted access yet.
	GetPublicKey(ctx context.Context) (string, error)
	// RequestAccess prompts the user for authorization and returns the
	// granted address.
	RequestAccess(ctx context.Context) (string, error)
	// GetNetwork reports which network the signer is configured for.
	GetNetwork(ctx context.Context) (network.ID, error)
	// SignTransaction asks the user to sign the envelope for the given
	// network passphrase.
	SignTransaction(ctx context.Context, envelope, passphrase string) (string, error)
}

// VerifyFunc checks that a signed blob returned by the signer is acceptable
// before it is allowed near submission.
type VerifyFunc func(signed string) error

// Manager owns the session. All mutations go through it; readers get
// value-copy snapshots and never observe half-applied transitions.
type Manager struct {
	signer         Signer
	verify         VerifyFunc
	defaultNetwork network.ID
	logger         *zap.Logger

	// opMu serializes connect/sign against each other; mu guards the
	// session value itself for snapshot readers.
	opMu    sync.Mutex
	mu      sync.RWMutex
	session Session
}

func NewManager(signer Signer, verify VerifyFunc, defaultNetwork network.ID, logger *zap.Logger) *Manager {
	m := &Manager{
		signer:         signer,
		verify:         verify,
		defaultNetwork: defaultNetwork,
		logger:         logger,
	}
	m.setSession(Session{State: StateDisconnected})
	return m
}

// Snapshot returns the current session by value.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Connect walks the authorization handshake with the signer. On any failure
// the session lands in StateError with the cause recorded, never in a partial
// connected state.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.setSession(Session{State: StateConnecting})

	installed, err := m.signer.IsConnected(ctx)
	if err != nil {
		return m.fail(fmt.Errorf("probe signer: %w", err))
	}
	if !installed {
		return m.fail(ErrSignerNotInstalled)
	}

	address, err := m.signer.GetPublicKey(ctx)
	if err != nil {
		return m.fail(fmt.Errorf("query public key: %w", err))
	}
	if address == "" {
		address, err = m.signer.RequestAccess(ctx)
		if err != nil {
			return m.fail(err)
		}
		if address == "" {
			return m.fail(ErrUserRejected)
		}
	}

	netID, err := m.signer.GetNetwork(ctx)
	if err != nil || netID == "" {
		// A connected session always carries a network; fall back rather
		// than leave the field empty.
		netID = m.defaultNetwork
	}

	sess := Session{State: StateConnected, Address: address, Network: netID}
	m.setSession(sess)
	m.logger.Info("wallet connected",
		zap.String("address", address),
		zap.String("network", string(netID)),
	)
	return sess, nil
}

// Disconnect clears the session. It is always safe to call.
func (m *Manager) Disconnect() Session {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	sess := Session{State: StateDisconnected}
	m.setSession(sess)
	m.logger.Info("wallet disconnected")
	return sess
}

// Sign forwards the envelope to the signer and vets what comes back. A user
// decline leaves the session connected; a revoked authorization resets it to
// disconnected before the error is surfaced.
func (m *Manager) Sign(ctx context.Context, envelope, passphrase string) (string, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.Snapshot().State != StateConnected {
		return "", ErrNotConnected
	}

	signed, err := m.signer.SignTransaction(ctx, envelope, passphrase)
	if err != nil {
		switch {
		case errors.Is(err, ErrDeauthorized):
			m.setSession(Session{State: StateDisconnected})
			m.logger.Warn("signer authorization revoked during signing")
			return "", err
		case errors.Is(err, ErrUserRejected):
			return "", err
		default:
			return "", &SigningError{Reason: err.Error()}
		}
	}

	if m.verify != nil {
		if err := m.verify(signed); err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformedSignature, err)
		}
	}
	return signed, nil
}

func (m *Manager) fail(err error) (Session, error) {
	sess := Session{State: StateError, LastError: err.Error()}
	m.setSession(sess)
	m.logger.Warn("wallet connect failed", zap.Error(err))
	return sess, err
}

func (m *Manager) setSession(sess Session) {
	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()
	metrics.WalletSessionState.Set(stateGaugeValue(sess.State))
}

func stateGaugeValue(s State) float64 {
	switch s {
	case StateConnecting:
		return 1
	case StateConnected:
		return 2
	case StateError:
		return 3
	default:
		return 0
	}
}
