package order

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spicefactory/backend-dine/internal/cart"
	"github.com/spicefactory/backend-dine/internal/common"
	"github.com/spicefactory/backend-dine/internal/events"
	"github.com/spicefactory/backend-dine/internal/pricing"
	"github.com/spicefactory/backend-dine/internal/session"
)

// ErrEmptyCart rejects a submission before any collaborator call is made.
var ErrEmptyCart = errors.New("cart is empty")

// ErrSubmissionFailed wraps a persistence rejection. The cart is left
// untouched so the caller may retry; no automatic retry happens here.
var ErrSubmissionFailed = errors.New("order submission failed")

// ErrNotFound indicates the requested order could not be located.
var ErrNotFound = errors.New("order not found")

// ConfirmedOrder is the immutable record created once a cart is successfully
// persisted. Never mutated after creation.
type ConfirmedOrder struct {
	OrderID     string      `bson:"_id,omitempty" json:"orderId"`
	UserID      string      `bson:"user_id" json:"userId"`
	Items       []cart.Item `bson:"items" json:"items"`
	Subtotal    float64     `bson:"subtotal" json:"subtotal"`
	Tax         float64     `bson:"tax" json:"tax"`
	TotalAmount float64     `bson:"total_amount" json:"totalAmount"`
	CreatedAt   time.Time   `bson:"created_at" json:"createdAt"`
}

// Creator is the external order-persistence collaborator. It stores the order
// and returns the assigned order identifier, or a rejection whose message is
// surfaced to the user verbatim.
type Creator interface {
	CreateOrder(ctx context.Context, order ConfirmedOrder) (string, error)
}

// Service owns the cart-to-order transition and the bill that follows it.
type Service struct {
	Carts    *cart.Service
	Creator  Creator
	Sessions session.Store
	Tracker  *session.Tracker
	Events   *events.Bus
	TaxBps   int
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Submit converts the session's cart into a persisted order. On success the
// cart is cleared and the bill snapshot frozen; on collaborator failure the
// cart is left unmodified for a manual retry.
func (s *Service) Submit(ctx context.Context, userID string) (ConfirmedOrder, error) {
	if s == nil || s.Carts == nil || s.Creator == nil {
		return ConfirmedOrder{}, errors.New("order service not configured")
	}
	c, err := s.Carts.Get(ctx, userID)
	if err != nil {
		return ConfirmedOrder{}, err
	}
	if c.IsEmpty() {
		return ConfirmedOrder{}, ErrEmptyCart
	}

	pricingItems := make([]pricing.Item, 0, len(c.Items))
	for _, it := range c.Items {
		pricingItems = append(pricingItems, pricing.Item{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	summary, err := pricing.Compute(pricingItems, s.TaxBps)
	if err != nil {
		return ConfirmedOrder{}, err
	}

	if s.Tracker != nil {
		current, err := s.Tracker.Current(ctx, userID)
		if err != nil {
			return ConfirmedOrder{}, err
		}
		// The phase can lag behind cart contents, e.g. when items were added
		// while the previous bill was pending. A non-empty cart is the source
		// of truth, so re-enter cart before moving to submitting.
		if current == session.PhaseIdle {
			if err := s.Tracker.Advance(ctx, userID, session.PhaseCart); err != nil {
				return ConfirmedOrder{}, err
			}
		}
		if err := s.Tracker.Advance(ctx, userID, session.PhaseSubmitting); err != nil {
			return ConfirmedOrder{}, err
		}
	}

	order := ConfirmedOrder{
		UserID:      userID,
		Items:       append([]cart.Item(nil), c.Items...),
		Subtotal:    summary.Subtotal,
		Tax:         summary.Tax,
		TotalAmount: summary.Total,
		CreatedAt:   s.now().UTC(),
	}
	orderID, err := s.Creator.CreateOrder(ctx, order)
	if err != nil {
		if s.Tracker != nil {
			_ = s.Tracker.Advance(ctx, userID, session.PhaseCart)
		}
		return ConfirmedOrder{}, common.NewAppError("SUBMISSION_FAILED", err.Error(), http.StatusBadGateway, ErrSubmissionFailed)
	}
	order.OrderID = orderID

	if s.Tracker != nil {
		if err := s.Tracker.Advance(ctx, userID, session.PhaseConfirmed); err != nil {
			return ConfirmedOrder{}, err
		}
	}
	if err := s.Carts.Clear(ctx, userID); err != nil {
		return ConfirmedOrder{}, err
	}
	if err := s.Finalize(ctx, userID, order); err != nil {
		return ConfirmedOrder{}, err
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, order.OrderID, map[string]any{
			"orderId": order.OrderID,
			"userId":  userID,
			"total":   order.TotalAmount,
		})
	}
	return order, nil
}
