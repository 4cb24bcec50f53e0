package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spicefactory/backend-dine/internal/session"
)

func TestPhaseTransitions(t *testing.T) {
	cases := []struct {
		from, to session.Phase
		ok       bool
	}{
		{session.PhaseIdle, session.PhaseCart, true},
		{session.PhaseCart, session.PhaseSubmitting, true},
		{session.PhaseSubmitting, session.PhaseConfirmed, true},
		{session.PhaseSubmitting, session.PhaseCart, true},
		{session.PhaseConfirmed, session.PhaseBilled, true},
		{session.PhaseBilled, session.PhaseIdle, true},
		{session.PhaseIdle, session.PhaseConfirmed, false},
		{session.PhaseIdle, session.PhaseBilled, false},
		{session.PhaseCart, session.PhaseConfirmed, false},
		{session.PhaseConfirmed, session.PhaseCart, false},
		{session.PhaseBilled, session.PhaseCart, true},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: CanTransition = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestAnyPhaseCanReturnToIdle(t *testing.T) {
	for _, from := range []session.Phase{
		session.PhaseIdle, session.PhaseCart, session.PhaseSubmitting,
		session.PhaseConfirmed, session.PhaseBilled,
	} {
		if !from.CanTransition(session.PhaseIdle) {
			t.Fatalf("%s -> idle should always be allowed", from)
		}
	}
}

func TestTrackerDefaultsToIdle(t *testing.T) {
	tracker := &session.Tracker{Store: session.NewMemoryStore()}
	phase, err := tracker.Current(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, session.PhaseIdle, phase)
}

func TestTrackerAdvanceAndReset(t *testing.T) {
	ctx := context.Background()
	tracker := &session.Tracker{Store: session.NewMemoryStore()}

	require.NoError(t, tracker.Advance(ctx, "u1", session.PhaseCart))
	require.NoError(t, tracker.Advance(ctx, "u1", session.PhaseSubmitting))
	require.NoError(t, tracker.Advance(ctx, "u1", session.PhaseConfirmed))
	require.NoError(t, tracker.Advance(ctx, "u1", session.PhaseBilled))

	phase, err := tracker.Current(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, session.PhaseBilled, phase)

	require.NoError(t, tracker.Reset(ctx, "u1"))
	phase, err = tracker.Current(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, session.PhaseIdle, phase)
}

func TestTrackerRejectsIllegalTransition(t *testing.T) {
	ctx := context.Background()
	tracker := &session.Tracker{Store: session.NewMemoryStore()}

	err := tracker.Advance(ctx, "u1", session.PhaseConfirmed)
	if !errors.Is(err, session.ErrBadTransition) {
		t.Fatalf("expected ErrBadTransition, got %v", err)
	}
}

func TestTrackerSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	tracker := &session.Tracker{Store: session.NewMemoryStore()}

	require.NoError(t, tracker.Advance(ctx, "u1", session.PhaseCart))

	phase, err := tracker.Current(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, session.PhaseIdle, phase)
}
