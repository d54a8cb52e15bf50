package wallet

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/pkg/network"
)

func newTestManager(signer Signer, verify VerifyFunc) *Manager {
	return NewManager(signer, verify, network.Futurenet, zap.NewNop())
}

func TestConnect(t *testing.T) {
	m := newTestManager(installedSigner("GABC", network.Testnet), nil)

	sess, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if sess.State != StateConnected || sess.Address != "GABC" || sess.Network != network.Testnet {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestConnect_RequestsAccessWhenUnauthorized(t *testing.T) {
	signer := installedSigner("GABC", network.Testnet)
	signer.getPublicKey = func(context.Context) (string, error) { return "", nil }

	m := newTestManager(signer, nil)
	sess, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if sess.Address != "GABC" {
		t.Errorf("expected address from access grant, got %q", sess.Address)
	}
}

func TestConnect_NotInstalled(t *testing.T) {
	signer := installedSigner("GABC", network.Testnet)
	signer.isConnected = func(context.Context) (bool, error) { return false, nil }

	m := newTestManager(signer, nil)
	sess, err := m.Connect(context.Background())
	if !errors.Is(err, ErrSignerNotInstalled) {
		t.Fatalf("expected ErrSignerNotInstalled, got %v", err)
	}
	if sess.State != StateError || sess.LastError == "" {
		t.Errorf("expected error state with cause, got %+v", sess)
	}
}

func TestConnect_AccessDeclined(t *testing.T) {
	signer := installedSigner("", network.Testnet)
	signer.requestAccess = func(context.Context) (string, error) { return "", ErrUserRejected }

	m := newTestManager(signer, nil)
	_, err := m.Connect(context.Background())
	if !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}
	if m.Snapshot().State != StateError {
		t.Errorf("expected error state, got %v", m.Snapshot().State)
	}
}

func TestConnect_NetworkFallback(t *testing.T) {
	signer := installedSigner("GABC", "")
	signer.getNetwork = func(context.Context) (network.ID, error) {
		return "", errors.New("network query failed")
	}

	m := newTestManager(signer, nil)
	sess, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if sess.Network != network.Futurenet {
		t.Errorf("expected default network fallback, got %q", sess.Network)
	}
}

func TestDisconnect(t *testing.T) {
	m := newTestManager(installedSigner("GABC", network.Testnet), nil)
	if _, err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	sess := m.Disconnect()
	if sess.State != StateDisconnected || sess.Address != "" || sess.Network != "" {
		t.Errorf("disconnect left residual session %+v", sess)
	}
}

func TestSign_NotConnected(t *testing.T) {
	m := newTestManager(installedSigner("GABC", network.Testnet), nil)

	if _, err := m.Sign(context.Background(), "AAAA", "passphrase"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSign_UserDeclineKeepsSession(t *testing.T) {
	signer := installedSigner("GABC", network.Testnet)
	signer.signTransaction = func(context.Context, string, string) (string, error) {
		return "", ErrUserRejected
	}

	m := newTestManager(signer, nil)
	if _, err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	_, err := m.Sign(context.Background(), "AAAA", "passphrase")
	if !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}
	if m.Snapshot().State != StateConnected {
		t.Error("decline must not tear down the session")
	}
}

func TestSign_DeauthorizationResetsSession(t *testing.T) {
	signer := installedSigner("GABC", network.Testnet)
	signer.signTransaction = func(context.Context, string, string) (string, error) {
		return "", ErrDeauthorized
	}

	m := newTestManager(signer, nil)
	if _, err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	_, err := m.Sign(context.Background(), "AAAA", "passphrase")
	if !errors.Is(err, ErrDeauthorized) {
		t.Fatalf("expected ErrDeauthorized, got %v", err)
	}
	if m.Snapshot().State != StateDisconnected {
		t.Error("revoked authorization must reset the session")
	}
}

func TestSign_GenericFailureWrapsReason(t *testing.T) {
	signer := installedSigner("GABC", network.Testnet)
	signer.signTransaction = func(context.Context, string, string) (string, error) {
		return "", errors.New("extension crashed")
	}

	m := newTestManager(signer, nil)
	if _, err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	_, err := m.Sign(context.Background(), "AAAA", "passphrase")
	var signErr *SigningError
	if !errors.As(err, &signErr) {
		t.Fatalf("expected SigningError, got %v", err)
	}
	if signErr.Reason != "extension crashed" {
		t.Errorf("reason altered: %q", signErr.Reason)
	}
}

func TestSign_RejectsMalformedResult(t *testing.T) {
	signer := installedSigner("GABC", network.Testnet)
	signer.signTransaction = func(context.Context, string, string) (string, error) {
		return "garbage", nil
	}
	verify := func(string) error { return errors.New("not an envelope") }

	m := newTestManager(signer, verify)
	if _, err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	_, err := m.Sign(context.Background(), "AAAA", "passphrase")
	if !errors.Is(err, ErrMalformedSignature) {
		t.Fatalf("expected ErrMalformedSignature, got %v", err)
	}
}
