package session

import (
	"context"
	"errors"
	"fmt"
)

// Phase names one state of the per-session order lifecycle.
type Phase string

const (
	// PhaseIdle is the rest state: no cart, no pending bill.
	PhaseIdle Phase = "idle"
	// PhaseCart means the session holds a non-empty cart.
	PhaseCart Phase = "cart"
	// PhaseSubmitting means an order submission is in flight.
	PhaseSubmitting Phase = "submitting"
	// PhaseConfirmed means the order was persisted and totals are frozen.
	PhaseConfirmed Phase = "confirmed"
	// PhaseBilled means the bill snapshot is awaiting payment selection.
	PhaseBilled Phase = "billed"
)

// ErrBadTransition is returned when a phase change violates the lifecycle.
var ErrBadTransition = errors.New("invalid phase transition")

var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseCart},
	PhaseCart:       {PhaseCart, PhaseSubmitting, PhaseIdle},
	PhaseSubmitting: {PhaseConfirmed, PhaseCart},
	PhaseConfirmed:  {PhaseBilled},
	// Guests may start the next round while a bill is pending, so payment
	// lands on cart instead of idle when the cart is already non-empty.
	PhaseBilled: {PhaseIdle, PhaseCart},
}

// CanTransition reports whether moving from p to next is legal.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range transitions[p] {
		if allowed == next {
			return true
		}
	}
	// Logout resets any phase back to idle.
	return next == PhaseIdle
}

// Tracker records the lifecycle phase of each session in the session store so
// the state machine survives restarts and is observable without any UI.
type Tracker struct {
	Store Store
}

// Current returns the session's phase, defaulting to idle when unset.
func (t *Tracker) Current(ctx context.Context, userID string) (Phase, error) {
	if t == nil || t.Store == nil {
		return PhaseIdle, errors.New("session: tracker not configured")
	}
	var phase Phase
	found, err := t.Store.Load(ctx, PhaseKey(userID), &phase)
	if err != nil {
		return PhaseIdle, err
	}
	if !found || phase == "" {
		return PhaseIdle, nil
	}
	return phase, nil
}

// Advance moves the session to next, enforcing the lifecycle rules.
func (t *Tracker) Advance(ctx context.Context, userID string, next Phase) error {
	if t == nil || t.Store == nil {
		return errors.New("session: tracker not configured")
	}
	current, err := t.Current(ctx, userID)
	if err != nil {
		return err
	}
	if !current.CanTransition(next) {
		return fmt.Errorf("%s -> %s: %w", current, next, ErrBadTransition)
	}
	return t.Store.Save(ctx, PhaseKey(userID), next)
}

// Reset forces the session back to idle regardless of its current phase.
func (t *Tracker) Reset(ctx context.Context, userID string) error {
	if t == nil || t.Store == nil {
		return errors.New("session: tracker not configured")
	}
	return t.Store.Delete(ctx, PhaseKey(userID))
}
