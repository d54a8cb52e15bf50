// Package sorobanrpc implements a JSON-RPC 2.0 client for the Soroban-style
// transaction node: simulation, broadcast, confirmation and contract reads.
package sorobanrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// Client talks JSON-RPC to a single node endpoint.
type Client struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
	nextID   atomic.Int64
}

// NewClient creates a client for the given RPC endpoint.
func NewClient(endpoint string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   logger,
	}
}

// SimulateTransaction runs a read-only execution of the envelope and returns
// resource fees or the revert diagnostic. A revert is reported inside the
// result, not as an error; errors mean the node could not be consulted.
func (c *Client) SimulateTransaction(ctx context.Context, envelope string) (*SimulationResult, error) {
	var result SimulationResult
	if err := c.call(ctx, "simulateTransaction", simulateParams{Transaction: envelope}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendTransaction broadcasts a signed envelope. It does not wait for
// confirmation; poll GetTransaction for that.
func (c *Client) SendTransaction(ctx context.Context, envelope string) (*SendResult, error) {
	var result SendResult
	if err := c.call(ctx, "sendTransaction", sendParams{Transaction: envelope}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTransaction fetches the confirmation status for a previously sent
// transaction hash.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*TransactionResult, error) {
	var result TransactionResult
	if err := c.call(ctx, "getTransaction", getTransactionParams{Hash: hash}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetContractData reads a single contract storage entry.
func (c *Client) GetContractData(ctx context.Context, contract, key string) (*ContractDataResult, error) {
	var result ContractDataResult
	if err := c.call(ctx, "getContractData", contractDataParams{Contract: contract, Key: key}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	reqBody, err := json.Marshal(&rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("rpc node unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("rpc http error %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		metrics.RPCRequests.WithLabelValues(method, "rpc_error").Inc()
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	metrics.RPCRequests.WithLabelValues(method, "ok").Inc()
	c.logger.Debug("RPC call completed", zap.String("method", method))
	return nil
}
