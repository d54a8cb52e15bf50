// Package service exposes the vault pipeline and wallet session over HTTP.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/xhedge/vault-middleware/pkg/app/errors"
	apphttp "github.com/xhedge/vault-middleware/pkg/app/http"
	"github.com/xhedge/vault-middleware/pkg/sorobanrpc"
	"github.com/xhedge/vault-middleware/pkg/vault"
	"github.com/xhedge/vault-middleware/pkg/wallet"
)

// estimateWait bounds how long a fee estimation request may ride the
// debounce window before the handler gives up.
const estimateWait = 10 * time.Second

// WalletManager is the session surface the handlers need.
type WalletManager interface {
	Connect(ctx context.Context) (wallet.Session, error)
	Disconnect() wallet.Session
	Snapshot() wallet.Session
}

// HTTP wraps the pipeline, reader and wallet manager with HTTP endpoints
type HTTP struct {
	pipeline   *vault.Pipeline
	reader     *vault.Reader
	estimator  *vault.FeeEstimator
	sessions   WalletManager
	contractID string
	validate   *validator.Validate
	logger     *zap.Logger
}

// RegisterRoutes registers the vault and wallet endpoints on the given chi
// router
func RegisterRoutes(
	r chi.Router,
	pipeline *vault.Pipeline,
	reader *vault.Reader,
	estimator *vault.FeeEstimator,
	sessions WalletManager,
	contractID string,
	logger *zap.Logger,
) {
	h := &HTTP{
		pipeline:   pipeline,
		reader:     reader,
		estimator:  estimator,
		sessions:   sessions,
		contractID: contractID,
		validate:   validator.New(),
		logger:     logger,
	}

	r.Get("/vault/metrics", apphttp.HandleError(h.metrics))
	r.Post("/vault/deposit", apphttp.HandleError(h.deposit))
	r.Post("/vault/withdraw", apphttp.HandleError(h.withdraw))
	r.Post("/vault/estimate-fee", apphttp.HandleError(h.estimateFee))

	r.Get("/wallet/session", apphttp.HandleError(h.session))
	r.Post("/wallet/connect", apphttp.HandleError(h.connect))
	r.Post("/wallet/disconnect", apphttp.HandleError(h.disconnect))
}

type operationRequest struct {
	Amount string `json:"amount" validate:"required"`
}

type estimateRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=deposit withdraw"`
	Amount string `json:"amount" validate:"required"`
}

type estimateResponse struct {
	Fee          int64  `json:"fee"`
	FeeFormatted string `json:"feeFormatted"`
}

func (h *HTTP) metrics(w http.ResponseWriter, r *http.Request) error {
	sess := h.sessions.Snapshot()
	snap := h.reader.FetchMetrics(r.Context(), sess.Address)
	apphttp.WriteJSON(w, http.StatusOK, snap)
	return nil
}

func (h *HTTP) deposit(w http.ResponseWriter, r *http.Request) error {
	return h.runOperation(w, r, vault.KindDeposit)
}

func (h *HTTP) withdraw(w http.ResponseWriter, r *http.Request) error {
	return h.runOperation(w, r, vault.KindWithdraw)
}

func (h *HTTP) runOperation(w http.ResponseWriter, r *http.Request, kind vault.OperationKind) error {
	var req operationRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	receipt, err := h.pipeline.Run(r.Context(), kind, req.Amount)
	if err != nil {
		return translateError(err)
	}

	apphttp.WriteJSON(w, http.StatusOK, receipt)
	return nil
}

func (h *HTTP) estimateFee(w http.ResponseWriter, r *http.Request) error {
	var req estimateRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	sess := h.sessions.Snapshot()
	if sess.State != wallet.StateConnected {
		return translateError(wallet.ErrNotConnected)
	}

	results := make(chan vault.Estimate, 1)
	err := h.estimator.Request(r.Context(), vault.EstimateRequest{
		Kind:        vault.OperationKind(req.Kind),
		Amount:      req.Amount,
		UserAddress: sess.Address,
		Network:     sess.Network,
		ContractID:  h.contractID,
	}, func(e vault.Estimate) {
		results <- e
	})
	if err != nil {
		return apperrors.GeneralError(err)
	}

	select {
	case <-r.Context().Done():
		return apperrors.TimeoutError(r.Context().Err(), "estimation cancelled")
	case <-time.After(estimateWait):
		// A newer request superseded this one; the client should keep the
		// estimate from that request instead.
		return apperrors.TimeoutError(nil, "estimation superseded")
	case estimate := <-results:
		if estimate.Err != nil {
			return translateError(estimate.Err)
		}
		apphttp.WriteJSON(w, http.StatusOK, &estimateResponse{
			Fee:          estimate.Fee,
			FeeFormatted: vault.FormatAmount(estimate.Fee),
		})
		return nil
	}
}

func (h *HTTP) session(w http.ResponseWriter, r *http.Request) error {
	apphttp.WriteJSON(w, http.StatusOK, h.sessions.Snapshot())
	return nil
}

func (h *HTTP) connect(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.sessions.Connect(r.Context())
	if err != nil {
		return translateError(err)
	}
	apphttp.WriteJSON(w, http.StatusOK, sess)
	return nil
}

func (h *HTTP) disconnect(w http.ResponseWriter, r *http.Request) error {
	apphttp.WriteJSON(w, http.StatusOK, h.sessions.Disconnect())
	return nil
}

func (h *HTTP) decode(r *http.Request, into any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, into); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := h.validate.Struct(into); err != nil {
		return apperrors.BadRequestError(err, "invalid request payload")
	}
	return nil
}

// translateError maps pipeline and wallet failures onto the service error
// taxonomy. Validation problems read back the exact sentinel text so the
// operator sees the same message regardless of transport.
func translateError(err error) error {
	var simErr *vault.SimulationError
	if errors.As(err, &simErr) {
		return apperrors.ProtocolError(err, simErr.Diagnostic)
	}

	var subErr *vault.SubmissionError
	if errors.As(err, &subErr) {
		if subErr.Code == sorobanrpc.SendStatusDuplicate {
			return apperrors.ConflictError(err, "transaction was already submitted")
		}
		return apperrors.ProtocolError(err, subErr.Error())
	}

	var signErr *wallet.SigningError
	if errors.As(err, &signErr) {
		return apperrors.DependencyError(err, signErr.Error())
	}

	switch {
	case errors.Is(err, vault.ErrEmptyAmount),
		errors.Is(err, vault.ErrNonNumericAmount),
		errors.Is(err, vault.ErrNonPositiveAmount),
		errors.Is(err, vault.ErrInsufficientFunds),
		errors.Is(err, vault.ErrAmountOverflow),
		errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, vault.ErrInvalidKind):
		return apperrors.BadRequestError(err, err.Error())
	case errors.Is(err, wallet.ErrNotConnected):
		return apperrors.BadRequestError(err, "please connect your wallet first")
	case errors.Is(err, wallet.ErrUserRejected):
		return apperrors.UserDeclinedError(err, "request rejected by user")
	case errors.Is(err, wallet.ErrDeauthorized):
		return apperrors.UnAuthorizedError(err, "wallet authorization was revoked")
	case errors.Is(err, wallet.ErrSignerNotInstalled):
		return apperrors.DependencyError(err, "signer extension is not installed")
	case errors.Is(err, wallet.ErrMalformedSignature):
		return apperrors.ProtocolError(err, "signer returned a malformed envelope")
	case errors.Is(err, vault.ErrOperationInFlight):
		return apperrors.ConflictError(err, err.Error())
	case errors.Is(err, vault.ErrMetricsUnavailable):
		return apperrors.DependencyError(err, "unable to fetch vault information")
	case errors.Is(err, vault.ErrAccountLoadFailed):
		return apperrors.DependencyError(err, "failed to load account")
	case errors.Is(err, vault.ErrEnvelopeExpired):
		return apperrors.TimeoutError(err, err.Error())
	case errors.Is(err, vault.ErrSubmissionTimeout):
		return apperrors.TimeoutError(err, err.Error())
	default:
		return apperrors.GeneralError(err)
	}
}
