package prefs

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/xhedge/vault-middleware/pkg/app/errors"
	apphttp "github.com/xhedge/vault-middleware/pkg/app/http"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service *Service
	logger  *zap.Logger
}

// RegisterRoutes registers the preference endpoints on the given chi router
func RegisterRoutes(r chi.Router, service *Service, logger *zap.Logger) {
	h := &HTTP{service: service, logger: logger}

	r.Get("/preferences", apphttp.HandleError(h.get))
	r.Put("/preferences", apphttp.HandleError(h.update))
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	p, err := h.service.Get(r.Context())
	if err != nil {
		return apperrors.GeneralError(err)
	}
	apphttp.WriteJSON(w, http.StatusOK, p)
	return nil
}

func (h *HTTP) update(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var p Preferences
	if err := json.Unmarshal(body, &p); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}

	if err := h.service.Update(r.Context(), &p); err != nil {
		return apperrors.GeneralError(err)
	}
	apphttp.WriteJSON(w, http.StatusOK, &p)
	return nil
}
