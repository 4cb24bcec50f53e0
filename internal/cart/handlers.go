package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spicefactory/backend-dine/internal/common"
	"github.com/spicefactory/backend-dine/internal/obs"
	"github.com/spicefactory/backend-dine/internal/pricing"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc    *Service
	TaxBps int
}

// Get returns the cart contents plus a pricing preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	c, err := h.Svc.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.renderCart(w, http.StatusOK, c)
}

// AddItem adds or increments a cart line item.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	var payload struct {
		ItemID    string  `json:"itemId"`
		Name      string  `json:"name"`
		UnitPrice float64 `json:"unitPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.ItemID = strings.TrimSpace(payload.ItemID)
	if payload.ItemID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "itemId is required", nil)
		return
	}
	c, err := h.Svc.AddItem(r.Context(), userID, Item{
		ItemID:    payload.ItemID,
		Name:      payload.Name,
		UnitPrice: payload.UnitPrice,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues("add").Inc()
	}
	h.renderCart(w, http.StatusOK, c)
}

// ChangeQuantity applies a quantity delta to a cart line item.
func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	itemID := chi.URLParam(r, "itemId")
	var payload struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Delta == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "delta must not be zero", nil)
		return
	}
	c, err := h.Svc.ChangeQuantity(r.Context(), userID, itemID, payload.Delta)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues("change_qty").Inc()
	}
	h.renderCart(w, http.StatusOK, c)
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues("clear").Inc()
	}
	common.JSONData(w, http.StatusOK, map[string]any{"items": []Item{}})
}

func (h *Handler) renderCart(w http.ResponseWriter, status int, c Cart) {
	pricingItems := make([]pricing.Item, 0, len(c.Items))
	for _, it := range c.Items {
		pricingItems = append(pricingItems, pricing.Item{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	summary, err := pricing.Compute(pricingItems, h.TaxBps)
	if err != nil {
		// A cart that fails pricing violates the store invariants.
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart state invalid", nil)
		return
	}
	common.JSONData(w, status, map[string]any{
		"items": c.Items,
		"pricing": map[string]any{
			"subtotal": pricing.Round2(summary.Subtotal),
			"tax":      pricing.Round2(summary.Tax),
			"total":    pricing.Round2(summary.Total),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
