package sorobanrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestServer(t *testing.T, method string, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.JSONRPC != "2.0" {
			t.Errorf("expected jsonrpc 2.0, got %q", req.JSONRPC)
		}
		if req.Method != method {
			t.Errorf("expected method %s, got %s", method, req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
}

func TestSimulateTransaction_Success(t *testing.T) {
	srv := newTestServer(t, "simulateTransaction",
		`{"minResourceFee":"58181","transactionData":"AAAB","latestLedger":123}`)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	result, err := c.SimulateTransaction(context.Background(), "AAAA")
	if err != nil {
		t.Fatalf("SimulateTransaction failed: %v", err)
	}
	if result.MinResourceFee != 58181 {
		t.Errorf("unexpected fee %d", result.MinResourceFee)
	}
	if result.Error != "" {
		t.Errorf("unexpected diagnostic %q", result.Error)
	}
}

func TestSimulateTransaction_RevertCarriesDiagnostic(t *testing.T) {
	srv := newTestServer(t, "simulateTransaction",
		`{"error":"HostError: insufficient balance","latestLedger":123}`)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	result, err := c.SimulateTransaction(context.Background(), "AAAA")
	if err != nil {
		t.Fatalf("revert must not be a transport error: %v", err)
	}
	if result.Error != "HostError: insufficient balance" {
		t.Errorf("diagnostic altered: %q", result.Error)
	}
}

func TestSendTransaction(t *testing.T) {
	srv := newTestServer(t, "sendTransaction", `{"status":"PENDING","hash":"deadbeef"}`)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	result, err := c.SendTransaction(context.Background(), "AAAA")
	if err != nil {
		t.Fatalf("SendTransaction failed: %v", err)
	}
	if result.Status != SendStatusPending || result.Hash != "deadbeef" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestGetTransaction(t *testing.T) {
	srv := newTestServer(t, "getTransaction", `{"status":"SUCCESS","hash":"deadbeef","ledger":42}`)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	result, err := c.GetTransaction(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if result.Status != TxStatusSuccess {
		t.Errorf("unexpected status %q", result.Status)
	}
}

func TestCall_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32600,"message":"invalid request"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, err := c.GetContractData(context.Background(), "CCONTRACT", "total_assets")
	if err == nil {
		t.Fatal("expected rpc error")
	}
}

func TestCall_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, err := c.SendTransaction(context.Background(), "AAAA")
	if err == nil {
		t.Fatal("expected http error")
	}
}
