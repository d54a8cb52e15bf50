// Package horizon implements a minimal client for the Horizon-style account API.
package horizon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/internal/metrics"
)

// ErrAccountNotFound is returned when the queried account does not exist on
// the network (typically unfunded).
var ErrAccountNotFound = errors.New("account not found")

const defaultTimeout = 15 * time.Second

// Client queries a Horizon-style endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for the given Horizon base URL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// LoadAccount fetches the current account record (sequence and balances) for
// the given address.
func (c *Client) LoadAccount(ctx context.Context, address string) (*Account, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s", c.baseURL, url.PathEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build account request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RPCRequests.WithLabelValues("load_account", "error").Inc()
		return nil, fmt.Errorf("horizon unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.RPCRequests.WithLabelValues("load_account", "error").Inc()
		return nil, fmt.Errorf("read account response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		metrics.RPCRequests.WithLabelValues("load_account", "not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RPCRequests.WithLabelValues("load_account", "error").Inc()
		var problem problemResponse
		if jsonErr := json.Unmarshal(body, &problem); jsonErr == nil && problem.Title != "" {
			return nil, fmt.Errorf("horizon error %d: %s", resp.StatusCode, problem.Title)
		}
		return nil, fmt.Errorf("horizon error %d", resp.StatusCode)
	}

	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		metrics.RPCRequests.WithLabelValues("load_account", "error").Inc()
		return nil, fmt.Errorf("decode account response: %w", err)
	}

	metrics.RPCRequests.WithLabelValues("load_account", "ok").Inc()
	c.logger.Debug("Loaded account",
		zap.String("address", address),
		zap.Int64("sequence", account.Sequence))

	return &account, nil
}
