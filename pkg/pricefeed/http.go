package pricefeed

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/xhedge/vault-middleware/pkg/app/errors"
	apphttp "github.com/xhedge/vault-middleware/pkg/app/http"
)

// RegisterRoutes registers the price endpoint on the given chi router
func RegisterRoutes(r chi.Router, tracker *Tracker) {
	r.Get("/price", apphttp.HandleError(func(w http.ResponseWriter, req *http.Request) error {
		quote, err := tracker.Latest()
		if err != nil {
			if errors.Is(err, ErrNoQuote) {
				return apperrors.ResourceNotFoundError(err, err.Error())
			}
			return apperrors.GeneralError(err)
		}
		apphttp.WriteJSON(w, http.StatusOK, quote)
		return nil
	}))
}
