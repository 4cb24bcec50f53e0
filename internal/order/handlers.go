package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spicefactory/backend-dine/internal/common"
	"github.com/spicefactory/backend-dine/internal/obs"
	"github.com/spicefactory/backend-dine/internal/pricing"
	"github.com/spicefactory/backend-dine/internal/session"
)

// History reads back confirmed orders for a user.
type History interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]ConfirmedOrder, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	GetForUser(ctx context.Context, userID, orderID string) (ConfirmedOrder, error)
}

// Handler wires the order lifecycle to HTTP.
type Handler struct {
	Svc     *Service
	History History
}

// Submit handles POST /api/v1/orders: the confirm-and-place action.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	order, err := h.Svc.Submit(r.Context(), userID)
	if err != nil {
		if obs.OrdersSubmittedTotal != nil {
			obs.OrdersSubmittedTotal.WithLabelValues("rejected").Inc()
		}
		h.writeError(w, err)
		return
	}
	if obs.OrdersSubmittedTotal != nil {
		obs.OrdersSubmittedTotal.WithLabelValues("confirmed").Inc()
	}
	common.JSONData(w, http.StatusCreated, renderOrder(order))
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order history not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	total, err := h.History.CountByUser(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.History.ListByUser(r.Context(), userID, perPage, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response := make([]map[string]any, 0, len(orders))
	for _, ord := range orders {
		response = append(response, renderOrder(ord))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": response,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get handles GET /api/v1/orders/{orderId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order history not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	orderID := chi.URLParam(r, "orderId")
	ord, err := h.History.GetForUser(r.Context(), userID, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, renderOrder(ord))
}

// Bill handles GET /api/v1/bill: the pending bill snapshot.
func (h *Handler) Bill(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	snapshot, err := h.Svc.Bill(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, renderBill(snapshot))
}

// Pay handles POST /api/v1/payments: the simulated payment completion.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required", nil)
		return
	}
	var payload struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	ack, err := h.Svc.CompletePayment(r.Context(), userID, payload.Method)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if obs.PaymentsCompletedTotal != nil {
		obs.PaymentsCompletedTotal.WithLabelValues(ack.Method).Inc()
	}
	common.JSONData(w, http.StatusOK, ack)
}

func renderOrder(ord ConfirmedOrder) map[string]any {
	return map[string]any{
		"orderId":     ord.OrderID,
		"userId":      ord.UserID,
		"items":       ord.Items,
		"subtotal":    pricing.Round2(ord.Subtotal),
		"tax":         pricing.Round2(ord.Tax),
		"totalAmount": pricing.Round2(ord.TotalAmount),
		"createdAt":   ord.CreatedAt,
	}
}

func renderBill(b BillSnapshot) map[string]any {
	return map[string]any{
		"orderId":     b.OrderID,
		"items":       b.Items,
		"subtotal":    pricing.Round2(b.Subtotal),
		"tax":         pricing.Round2(b.Tax),
		"totalAmount": pricing.Round2(b.TotalAmount),
	}
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
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusBadRequest, "EMPTY_CART", "your order is empty", nil)
	case errors.Is(err, ErrNoBill):
		common.JSONError(w, http.StatusNotFound, "NO_BILL", "no bill to display", nil)
	case errors.Is(err, ErrInvalidPaymentMethod):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, session.ErrBadTransition):
		common.JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, pricing.ErrInvalidInput):
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart state invalid", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
