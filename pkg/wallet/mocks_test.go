package wallet

import (
	"context"

	"github.com/xhedge/vault-middleware/pkg/network"
)

type mockSigner struct {
	isConnected     func(ctx context.Context) (bool, error)
	getPublicKey    func(ctx context.Context) (string, error)
	requestAccess   func(ctx context.Context) (string, error)
	getNetwork      func(ctx context.Context) (network.ID, error)
	signTransaction func(ctx context.Context, envelope, passphrase string) (string, error)
}

func (m *mockSigner) IsConnected(ctx context.Context) (bool, error) {
	return m.isConnected(ctx)
}

func (m *mockSigner) GetPublicKey(ctx context.Context) (string, error) {
	return m.getPublicKey(ctx)
}

func (m *mockSigner) RequestAccess(ctx context.Context) (string, error) {
	return m.requestAccess(ctx)
}

func (m *mockSigner) GetNetwork(ctx context.Context) (network.ID, error) {
	return m.getNetwork(ctx)
}

func (m *mockSigner) SignTransaction(ctx context.Context, envelope, passphrase string) (string, error) {
	return m.signTransaction(ctx, envelope, passphrase)
}

// installedSigner returns a mock that completes the whole handshake.
func installedSigner(address string, netID network.ID) *mockSigner {
	return &mockSigner{
		isConnected:  func(context.Context) (bool, error) { return true, nil },
		getPublicKey: func(context.Context) (string, error) { return address, nil },
		requestAccess: func(context.Context) (string, error) {
			return address, nil
		},
		getNetwork: func(context.Context) (network.ID, error) { return netID, nil },
		signTransaction: func(_ context.Context, envelope, _ string) (string, error) {
			return envelope, nil
		},
	}
}
