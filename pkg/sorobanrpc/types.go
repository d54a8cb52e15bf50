package sorobanrpc

import "encoding/json"

// JSON-RPC 2.0 message framing.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// SimulationResult is the node's answer to simulateTransaction.
//
// A revert is not a transport error: Error carries the contract diagnostic
// verbatim and the caller decides how to surface it.
type SimulationResult struct {
	// Error holds the revert diagnostic if the invocation would fail.
	Error string `json:"error,omitempty"`
	// MinResourceFee is the resource fee, in raw units, the network requires.
	MinResourceFee int64 `json:"minResourceFee,string,omitempty"`
	// TransactionData is the opaque footprint/resource blob to fold into the
	// assembled envelope.
	TransactionData string `json:"transactionData,omitempty"`
	// LatestLedger is the ledger the simulation was run against.
	LatestLedger int64 `json:"latestLedger,omitempty"`
}

// Send statuses reported by sendTransaction.
const (
	SendStatusPending       = "PENDING"
	SendStatusDuplicate     = "DUPLICATE"
	SendStatusTryAgainLater = "TRY_AGAIN_LATER"
	SendStatusError         = "ERROR"
)

// SendResult is the node's answer to sendTransaction.
type SendResult struct {
	Status       string `json:"status"`
	Hash         string `json:"hash"`
	ErrorResult  string `json:"errorResult,omitempty"`
	LatestLedger int64  `json:"latestLedger,omitempty"`
}

// Transaction statuses reported by getTransaction.
const (
	TxStatusNotFound = "NOT_FOUND"
	TxStatusSuccess  = "SUCCESS"
	TxStatusFailed   = "FAILED"
)

// TransactionResult is the node's answer to getTransaction.
type TransactionResult struct {
	Status     string `json:"status"`
	Hash       string `json:"hash,omitempty"`
	ResultCode string `json:"resultCode,omitempty"`
	Ledger     int64  `json:"ledger,omitempty"`
}

// ContractDataResult is the node's answer to getContractData.
type ContractDataResult struct {
	Value        string `json:"value"`
	LatestLedger int64  `json:"latestLedger,omitempty"`
}

type simulateParams struct {
	Transaction string `json:"transaction"`
}

type sendParams struct {
	Transaction string `json:"transaction"`
}

type getTransactionParams struct {
	Hash string `json:"hash"`
}

type contractDataParams struct {
	Contract string `json:"contract"`
	Key      string `json:"key"`
}
