package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-stocks/internal/httpx"
	"github.com/diewo77/go-stocks/internal/services"
)

// writeServiceError maps business-layer error kinds to HTTP statuses. The
// insufficient-stock case keeps its own code so the UI can show a specific
// message instead of a generic failure.
func writeServiceError(w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", vErr.Violations)
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.JSONError(w, http.StatusBadRequest, "stock_insuffisant", nil)
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.JSONError(w, http.StatusNotFound, "commande_introuvable", nil)
	case errors.Is(err, services.ErrStockNotFound):
		httpx.JSONError(w, http.StatusNotFound, "stock_introuvable", nil)
	case errors.Is(err, services.ErrUserNotFound):
		httpx.JSONError(w, http.StatusNotFound, "utilisateur_introuvable", nil)
	case errors.Is(err, services.ErrDuplicateStock):
		httpx.JSONError(w, http.StatusConflict, "stock_deja_existant", nil)
	case errors.Is(err, services.ErrInvalidState):
		httpx.JSONError(w, http.StatusConflict, "statut_incompatible", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func parseID(r *http.Request) (uint64, bool) {
	id, err := parseUint(r.PathValue("id"))
	return id, err == nil && id != 0
}
