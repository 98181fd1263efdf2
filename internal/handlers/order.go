package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-stocks/internal/auth"
	"github.com/diewo77/go-stocks/internal/httpx"
	"github.com/diewo77/go-stocks/internal/models"
	"github.com/diewo77/go-stocks/internal/services"
	"gorm.io/gorm"
)

type OrderHandler struct {
	DB  *gorm.DB
	Svc *services.OrderService
}

func NewOrderHandler(db *gorm.DB, svc *services.OrderService) *OrderHandler {
	return &OrderHandler{DB: db, Svc: svc}
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// currentUser resolves the authenticated user from the session context.
func (h *OrderHandler) currentUser(r *http.Request) (*models.User, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return nil, false
	}
	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// List: GET /commandes – all commandes with user and stock joined.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": orders, "total": len(orders)})
}

// Create: POST /commandes – new pending commande for the session user.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		StockID      uint64 `json:"id_stock"`
		Quantite     int64  `json:"quantite"`
		DateCommande string `json:"date_commande"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var date time.Time
	if req.DateCommande != "" {
		parsed, err := time.Parse(time.RFC3339, req.DateCommande)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"date_commande": "invalid_date"})
			return
		}
		date = parsed
	}
	order, err := h.Svc.Create(r.Context(), services.CreateOrderInput{
		UserID:       user.ID,
		StockID:      req.StockID,
		Quantite:     req.Quantite,
		DateCommande: date,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

// Update: PUT /commandes/{id} – owner (or admin) edits a pending commande.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	user, ok := h.currentUser(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	order, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if user.Role != models.RoleAdmin && order.UserID != user.ID {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var req struct {
		StockID      *uint64 `json:"id_stock"`
		Quantite     *int64  `json:"quantite"`
		DateCommande *string `json:"date_commande"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in := services.UpdateOrderInput{StockID: req.StockID, Quantite: req.Quantite}
	if req.DateCommande != nil {
		parsed, err := time.Parse(time.RFC3339, *req.DateCommande)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"date_commande": "invalid_date"})
			return
		}
		in.DateCommande = &parsed
	}
	updated, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// Delete: DELETE /commandes/{id} – owner removes a pending commande.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	user, ok := h.currentUser(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	order, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if user.Role != models.RoleAdmin && order.UserID != user.ID {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Commande supprimée avec succès.")
}

// Decide: PATCH /commandes/{id} – admin accepts or refuses. The action comes
// from the body: {"action": "accept"} or {"action": "refuse"}.
func (h *OrderHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	switch req.Action {
	case "accept":
		order, err := h.Svc.Accept(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, order)
	case "refuse":
		order, err := h.Svc.Refuse(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, order)
	default:
		httpx.JSONError(w, http.StatusBadRequest, "action_inconnue", nil)
	}
}
