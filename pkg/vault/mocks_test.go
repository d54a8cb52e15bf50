package vault

import (
	"context"

	"github.com/xhedge/vault-middleware/pkg/horizon"
	"github.com/xhedge/vault-middleware/pkg/sorobanrpc"
	"github.com/xhedge/vault-middleware/pkg/wallet"
)

type mockAccountLoader struct {
	loadAccount func(ctx context.Context, address string) (*horizon.Account, error)
}

func (m *mockAccountLoader) LoadAccount(ctx context.Context, address string) (*horizon.Account, error) {
	return m.loadAccount(ctx, address)
}

type mockSimulator struct {
	simulate func(ctx context.Context, envelope string) (*sorobanrpc.SimulationResult, error)
}

func (m *mockSimulator) SimulateTransaction(ctx context.Context, envelope string) (*sorobanrpc.SimulationResult, error) {
	return m.simulate(ctx, envelope)
}

type mockBroadcaster struct {
	send func(ctx context.Context, envelope string) (*sorobanrpc.SendResult, error)
	get  func(ctx context.Context, hash string) (*sorobanrpc.TransactionResult, error)
}

func (m *mockBroadcaster) SendTransaction(ctx context.Context, envelope string) (*sorobanrpc.SendResult, error) {
	return m.send(ctx, envelope)
}

func (m *mockBroadcaster) GetTransaction(ctx context.Context, hash string) (*sorobanrpc.TransactionResult, error) {
	return m.get(ctx, hash)
}

type mockContractReader struct {
	getContractData func(ctx context.Context, contract, key string) (*sorobanrpc.ContractDataResult, error)
}

func (m *mockContractReader) GetContractData(ctx context.Context, contract, key string) (*sorobanrpc.ContractDataResult, error) {
	return m.getContractData(ctx, contract, key)
}

type mockSession struct {
	snapshot func() wallet.Session
	sign     func(ctx context.Context, envelope, passphrase string) (string, error)
}

func (m *mockSession) Snapshot() wallet.Session {
	return m.snapshot()
}

func (m *mockSession) Sign(ctx context.Context, envelope, passphrase string) (string, error) {
	return m.sign(ctx, envelope, passphrase)
}

func fundedAccountLoader(sequence int64, balance string) *mockAccountLoader {
	return &mockAccountLoader{
		loadAccount: func(_ context.Context, address string) (*horizon.Account, error) {
			return &horizon.Account{
				ID:       address,
				Sequence: sequence,
				Balances: []horizon.Balance{
					{AssetType: "credit_alphanum4", AssetCode: "USDX", AssetIssuer: "GISSUER", Balance: balance},
				},
			}, nil
		},
	}
}

// contractStore builds a reader mock over a fixed key/value map; missing keys
// read as empty values.
func contractStore(values map[string]string) *mockContractReader {
	return &mockContractReader{
		getContractData: func(_ context.Context, _, key string) (*sorobanrpc.ContractDataResult, error) {
			return &sorobanrpc.ContractDataResult{Value: values[key]}, nil
		},
	}
}

// signingSession is a connected session whose signer marks envelopes signed.
func signingSession(address string) *mockSession {
	return &mockSession{
		snapshot: func() wallet.Session {
			return wallet.Session{State: wallet.StateConnected, Address: address, Network: "futurenet"}
		},
		sign: func(_ context.Context, envelope, _ string) (string, error) {
			env, err := DecodeEnvelope(envelope)
			if err != nil {
				return "", err
			}
			env.Stage = StageSigned
			env.Signatures = []string{"c2lnbmF0dXJl"}
			return env.Encode()
		},
	}
}
