package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spicefactory/backend-dine/internal/cart"
	"github.com/spicefactory/backend-dine/internal/events"
	"github.com/spicefactory/backend-dine/internal/session"
)

// ErrNoBill means no bill snapshot exists for the session.
var ErrNoBill = errors.New("no bill to display")

// ErrInvalidPaymentMethod rejects unknown payment method names.
var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// BillSnapshot is a display-only freeze of a confirmed order's totals. It
// exists between order confirmation and payment completion; the totals are
// carried over from the confirmed order, never recomputed.
type BillSnapshot struct {
	OrderID     string      `json:"orderId"`
	Items       []cart.Item `json:"items"`
	Subtotal    float64     `json:"subtotal"`
	Tax         float64     `json:"tax"`
	TotalAmount float64     `json:"totalAmount"`
}

// PaymentAck acknowledges a simulated payment. No settlement happens.
type PaymentAck struct {
	OrderID string `json:"orderId"`
	Method  string `json:"method"`
	Message string `json:"message"`
}

var paymentMethods = map[string]struct{}{
	"cash":   {},
	"card":   {},
	"online": {},
}

// Finalize freezes the confirmed order's totals into a bill snapshot stored
// in the session until payment or logout.
func (s *Service) Finalize(ctx context.Context, userID string, order ConfirmedOrder) error {
	if s == nil || s.Sessions == nil {
		return errors.New("order service not configured")
	}
	snapshot := BillSnapshot{
		OrderID:     order.OrderID,
		Items:       order.Items,
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		TotalAmount: order.TotalAmount,
	}
	if err := s.Sessions.Save(ctx, session.BillKey(userID), snapshot); err != nil {
		return err
	}
	if s.Tracker != nil {
		if err := s.Tracker.Advance(ctx, userID, session.PhaseBilled); err != nil {
			return err
		}
	}
	return nil
}

// Bill returns the pending bill snapshot for the session.
func (s *Service) Bill(ctx context.Context, userID string) (BillSnapshot, error) {
	if s == nil || s.Sessions == nil {
		return BillSnapshot{}, errors.New("order service not configured")
	}
	var snapshot BillSnapshot
	found, err := s.Sessions.Load(ctx, session.BillKey(userID), &snapshot)
	if err != nil {
		return BillSnapshot{}, err
	}
	if !found {
		return BillSnapshot{}, ErrNoBill
	}
	return snapshot, nil
}

// CompletePayment records the chosen method and clears the bill snapshot.
// The session returns to idle, or to cart when the next round was already
// started. Purely an acknowledgment; there is no gateway.
func (s *Service) CompletePayment(ctx context.Context, userID, method string) (PaymentAck, error) {
	if s == nil || s.Sessions == nil {
		return PaymentAck{}, errors.New("order service not configured")
	}
	method = strings.ToLower(strings.TrimSpace(method))
	if _, ok := paymentMethods[method]; !ok {
		return PaymentAck{}, fmt.Errorf("%q: %w", method, ErrInvalidPaymentMethod)
	}
	snapshot, err := s.Bill(ctx, userID)
	if err != nil {
		return PaymentAck{}, err
	}
	if err := s.Sessions.Delete(ctx, session.BillKey(userID)); err != nil {
		return PaymentAck{}, err
	}
	if s.Tracker != nil {
		// When the guest already started the next round during the bill, the
		// session goes back to cart rather than idle.
		next := session.PhaseIdle
		if s.Carts != nil {
			if c, cerr := s.Carts.Get(ctx, userID); cerr == nil && !c.IsEmpty() {
				next = session.PhaseCart
			}
		}
		if err := s.Tracker.Advance(ctx, userID, next); err != nil {
			return PaymentAck{}, err
		}
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderPaid, snapshot.OrderID, map[string]any{
			"orderId": snapshot.OrderID,
			"userId":  userID,
			"method":  method,
		})
	}
	return PaymentAck{
		OrderID: snapshot.OrderID,
		Method:  method,
		Message: fmt.Sprintf("Payment with %s successful. Thank you!", method),
	}, nil
}
