package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/spicefactory/backend-dine/internal/session"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Item is one selected menu entry in a cart. Unique by ItemID.
type Item struct {
	ItemID    string  `json:"itemId" bson:"item_id"`
	Name      string  `json:"name" bson:"name"`
	UnitPrice float64 `json:"unitPrice" bson:"unit_price"`
	Quantity  int     `json:"quantity" bson:"quantity"`
}

// Cart holds the pre-submission selection for one table session.
type Cart struct {
	UserID string `json:"userId"`
	Items  []Item `json:"items"`
}

// IsEmpty reports whether the cart has no items.
func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Service owns cart mutations. Every mutation persists the updated snapshot
// through the session store so the cart survives reconnects; the invariants
// (no duplicate ItemID, all quantities positive) hold after every operation.
// The stored snapshot is the source of truth; the phase tracker follows it
// best effort and is re-synced at submission time.
type Service struct {
	Sessions session.Store
	Tracker  *session.Tracker
	Log      zerolog.Logger
}

// Get loads the cart for a session, returning an empty cart when none exists.
func (s *Service) Get(ctx context.Context, userID string) (Cart, error) {
	if s == nil || s.Sessions == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if userID == "" {
		return Cart{}, fmt.Errorf("user id required: %w", ErrInvalidInput)
	}
	c := Cart{UserID: userID}
	if _, err := s.Sessions.Load(ctx, session.CartKey(userID), &c); err != nil {
		return Cart{}, err
	}
	c.UserID = userID
	return c, nil
}

// AddItem inserts a new entry with quantity 1, or increments the quantity of
// an existing entry with the same ItemID.
func (s *Service) AddItem(ctx context.Context, userID string, item Item) (Cart, error) {
	if s == nil || s.Sessions == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if item.ItemID == "" {
		return Cart{}, fmt.Errorf("itemId required: %w", ErrInvalidInput)
	}
	if item.UnitPrice < 0 {
		return Cart{}, fmt.Errorf("unit price must not be negative: %w", ErrInvalidInput)
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	found := false
	for i := range c.Items {
		if c.Items[i].ItemID == item.ItemID {
			c.Items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		item.Quantity = 1
		c.Items = append(c.Items, item)
	}
	if err := s.Sessions.Save(ctx, session.CartKey(userID), c); err != nil {
		return Cart{}, err
	}
	if err := s.enterCartPhase(ctx, userID); err != nil {
		s.logPhaseDrift(userID, err)
	}
	return c, nil
}

// ChangeQuantity adds delta to the matching entry's quantity, removing the
// entry entirely when the result drops to zero or below. Unknown item ids are
// a no-op.
func (s *Service) ChangeQuantity(ctx context.Context, userID, itemID string, delta int) (Cart, error) {
	if s == nil || s.Sessions == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	changed := false
	for i := range c.Items {
		if c.Items[i].ItemID != itemID {
			continue
		}
		c.Items[i].Quantity += delta
		if c.Items[i].Quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		changed = true
		break
	}
	if !changed {
		return c, nil
	}
	if err := s.Sessions.Save(ctx, session.CartKey(userID), c); err != nil {
		return Cart{}, err
	}
	if c.IsEmpty() {
		if err := s.leaveCartPhase(ctx, userID); err != nil {
			s.logPhaseDrift(userID, err)
		}
	}
	return c, nil
}

// Clear empties the cart. Called after successful submission and on logout;
// the lifecycle phase is only reset when the session is still browsing.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if s == nil || s.Sessions == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Sessions.Delete(ctx, session.CartKey(userID)); err != nil {
		return err
	}
	if err := s.leaveCartPhase(ctx, userID); err != nil {
		s.logPhaseDrift(userID, err)
	}
	return nil
}

// The cart snapshot already persisted when phase sync fails, so the mutation
// is reported as successful and the drift is repaired at the next submission.
func (s *Service) logPhaseDrift(userID string, err error) {
	s.Log.Warn().Err(err).Str("user_id", userID).Msg("cart phase sync failed")
}

func (s *Service) enterCartPhase(ctx context.Context, userID string) error {
	if s.Tracker == nil {
		return nil
	}
	current, err := s.Tracker.Current(ctx, userID)
	if err != nil {
		return err
	}
	if current == session.PhaseIdle {
		return s.Tracker.Advance(ctx, userID, session.PhaseCart)
	}
	return nil
}

func (s *Service) leaveCartPhase(ctx context.Context, userID string) error {
	if s.Tracker == nil {
		return nil
	}
	current, err := s.Tracker.Current(ctx, userID)
	if err != nil {
		return err
	}
	if current == session.PhaseCart {
		return s.Tracker.Advance(ctx, userID, session.PhaseIdle)
	}
	return nil
}
