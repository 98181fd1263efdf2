package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/go-stocks/internal/httpx"
	"github.com/diewo77/go-stocks/internal/services"
)

type StockHandler struct {
	Svc *services.StockService
}

func NewStockHandler(svc *services.StockService) *StockHandler {
	return &StockHandler{Svc: svc}
}

// List: GET /stocks – all items. IDs and quantities serialize as decimal
// strings so 64-bit values survive JavaScript consumers intact.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.Svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": stocks, "total": len(stocks)})
}

// Create: POST /stocks – admin only (enforced by the router gate).
func (h *StockHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nom         string `json:"nom"`
		Description string `json:"description"`
		Quantite    int64  `json:"quantite_disponible"`
		Type        string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	stock, err := h.Svc.Create(r.Context(), services.CreateStockInput{
		Nom:         req.Nom,
		Description: req.Description,
		Quantite:    req.Quantite,
		Type:        req.Type,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, stock)
}

// Update: PUT /stocks/{id}
func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		Nom         *string `json:"nom"`
		Description *string `json:"description"`
		Quantite    *int64  `json:"quantite_disponible"`
		Type        *string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	stock, err := h.Svc.Update(r.Context(), id, services.UpdateStockInput{
		Nom:         req.Nom,
		Description: req.Description,
		Quantite:    req.Quantite,
		Type:        req.Type,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stock)
}

// Delete: DELETE /stocks/{id} – cascades over mouvements and commandes.
func (h *StockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Stock supprimé avec succès.")
}

// Movements: GET /mouvements?stock_id= – the append-only ledger, newest first.
func (h *StockHandler) Movements(w http.ResponseWriter, r *http.Request) {
	var stockID uint64
	if v := r.URL.Query().Get("stock_id"); v != "" {
		id, err := parseUint(v)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return
		}
		stockID = id
	}
	movements, err := h.Svc.ListMovements(r.Context(), stockID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": movements, "total": len(movements)})
}
