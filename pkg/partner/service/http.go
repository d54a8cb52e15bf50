package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/xhedge/vault-middleware/pkg/app/errors"
	apphttp "github.com/xhedge/vault-middleware/pkg/app/http"
	"github.com/xhedge/vault-middleware/pkg/auth"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service  *Service
	validate *validator.Validate
	logger   *zap.Logger
}

// RegisterRoutes registers HTTP endpoints for partner authentication on the
// given chi router
func RegisterRoutes(r chi.Router, service *Service, logger *zap.Logger) {
	h := &HTTP{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}

	r.Post("/partner/login", apphttp.HandleError(h.login))
	r.Post("/partner/logout", apphttp.HandleError(h.logout))
	r.Get("/partner/session", apphttp.HandleError(h.session))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Partner any    `json:"partner"`
	Token   string `json:"token"`
}

func (h *HTTP) login(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.BadRequestError(err, "email and password are required")
	}

	p, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrLoginInProgress):
			return apperrors.ConflictError(err, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			return apperrors.UnAuthorizedError(err, err.Error())
		default:
			return apperrors.GeneralError(err)
		}
	}

	apphttp.WriteJSON(w, http.StatusOK, &loginResponse{Partner: p, Token: token})
	return nil
}

func (h *HTTP) logout(w http.ResponseWriter, r *http.Request) error {
	if err := h.service.Logout(r.Context()); err != nil {
		return apperrors.GeneralError(err)
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return nil
}

func (h *HTTP) session(w http.ResponseWriter, r *http.Request) error {
	p, err := h.service.CheckAuth(r.Context())
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return apperrors.UnAuthorizedError(err, err.Error())
		}
		return apperrors.GeneralError(err)
	}
	apphttp.WriteJSON(w, http.StatusOK, p)
	return nil
}

// RequirePermission gates a route subtree behind an authenticated partner
// session holding the named permission.
func RequirePermission(service *Service, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := service.CheckAuth(r.Context())
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "authentication required"))
				return
			}
			if !p.HasPermission(permission) {
				apphttp.DefaultErrorHandler(w, apperrors.ForbiddenError(nil, "permission denied"))
				return
			}

			ctx := auth.WithPartnerID(r.Context(), p.ID)
			ctx = auth.WithRole(ctx, p.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
