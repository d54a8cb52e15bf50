// Package signer talks to the signer bridge, the local HTTP facade in front
// of the user's wallet extension. It adapts the bridge's REST surface onto
// the wallet.Signer contract.
package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/pkg/network"
	"github.com/xhedge/vault-middleware/pkg/wallet"
)

// Bridge is an HTTP client for the signer bridge. It implements
// wallet.Signer.
type Bridge struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewBridge(baseURL string, timeout time.Duration, logger *zap.Logger) *Bridge {
	return &Bridge{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type statusResponse struct {
	Installed bool `json:"installed"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type networkResponse struct {
	Network string `json:"network"`
}

type signRequest struct {
	Envelope          string `json:"envelope"`
	NetworkPassphrase string `json:"networkPassphrase"`
}

type signResponse struct {
	SignedEnvelope string `json:"signedEnvelope"`
	Declined       bool   `json:"declined"`
	Deauthorized   bool   `json:"deauthorized"`
	Error          string `json:"error,omitempty"`
}

// IsConnected reports whether the wallet extension is installed. An
// unreachable bridge counts as not installed rather than an error; the
// extension cannot be there if its host is gone.
func (b *Bridge) IsConnected(ctx context.Context) (bool, error) {
	var status statusResponse
	if err := b.get(ctx, "/status", &status); err != nil {
		b.logger.Debug("signer bridge unreachable", zap.Error(err))
		return false, nil
	}
	return status.Installed, nil
}

func (b *Bridge) GetPublicKey(ctx context.Context) (string, error) {
	var resp addressResponse
	if err := b.get(ctx, "/public-key", &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}

func (b *Bridge) RequestAccess(ctx context.Context) (string, error) {
	var resp addressResponse
	err := b.post(ctx, "/access", nil, &resp)
	if err != nil {
		if isDeclined(err) {
			return "", wallet.ErrUserRejected
		}
		return "", err
	}
	return resp.Address, nil
}

func (b *Bridge) GetNetwork(ctx context.Context) (network.ID, error) {
	var resp networkResponse
	if err := b.get(ctx, "/network", &resp); err != nil {
		return "", err
	}
	return network.ID(resp.Network), nil
}

// SignTransaction forwards the envelope to the extension for user approval.
// Declines and revoked authorizations map onto the wallet sentinels so the
// session manager can react to each.
func (b *Bridge) SignTransaction(ctx context.Context, envelope, passphrase string) (string, error) {
	var resp signResponse
	err := b.post(ctx, "/sign", &signRequest{Envelope: envelope, NetworkPassphrase: passphrase}, &resp)
	if err != nil {
		return "", err
	}
	switch {
	case resp.Deauthorized:
		return "", wallet.ErrDeauthorized
	case resp.Declined:
		return "", wallet.ErrUserRejected
	case resp.Error != "":
		return "", fmt.Errorf("signer bridge: %s", resp.Error)
	}
	return resp.SignedEnvelope, nil
}

func (b *Bridge) get(ctx context.Context, path string, out any) error {
	return b.do(ctx, http.MethodGet, path, nil, out)
}

func (b *Bridge) post(ctx context.Context, path string, in, out any) error {
	return b.do(ctx, http.MethodPost, path, in, out)
}

type declinedError struct{}

func (declinedError) Error() string { return "request declined" }

func isDeclined(err error) bool {
	_, ok := err.(declinedError)
	return ok
}

func (b *Bridge) do(ctx context.Context, method, path string, in, out any) error {
	endpoint, err := url.JoinPath(b.baseURL, path)
	if err != nil {
		return fmt.Errorf("build bridge url: %w", err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal bridge request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build bridge request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("signer bridge unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusConflict:
		// The bridge reports a user decline as a conflict.
		return declinedError{}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("signer bridge returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
			return fmt.Errorf("decode bridge response: %w", err)
		}
	}
	return nil
}
