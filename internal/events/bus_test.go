package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spicefactory/backend-dine/internal/events"
)

type memStore struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (m *memStore) InsertEvent(_ context.Context, ev events.Event) (events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return events.Event{}, m.err
	}
	ev.ID = "ev-1"
	m.events = append(m.events, ev)
	return ev, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []events.Event
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, ev)
	return r.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	bus := &events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier},
		Now:       func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}

	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, "ord-1", map[string]any{"total": 252.0})
	require.NoError(t, err)
	require.Equal(t, "ev-1", ev.ID)
	require.Equal(t, events.TopicOrderCreated, ev.Topic)
	require.JSONEq(t, `{"total":252}`, string(ev.Payload))

	require.Len(t, store.events, 1)
	require.Len(t, notifier.seen, 1)
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := &events.Bus{Store: &memStore{}}

	_, err := bus.Emit(context.Background(), "", "ord-1", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderPaid, "  ", nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidRawPayload(t *testing.T) {
	bus := &events.Bus{Store: &memStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderPaid, "ord-1", []byte("{not json"))
	require.Error(t, err)
}

func TestEmitStoreFailureSkipsNotifiers(t *testing.T) {
	notifier := &recordingNotifier{}
	bus := &events.Bus{
		Store:     &memStore{err: errors.New("insert failed")},
		Notifiers: []events.Notifier{notifier},
	}

	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, "ord-1", nil)
	require.Error(t, err)
	require.Empty(t, notifier.seen)
}

func TestEmitCollectsNotifierErrors(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("webhook down")}
	ok := &recordingNotifier{}
	bus := &events.Bus{Store: &memStore{}, Notifiers: []events.Notifier{failing, ok}}

	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, "ord-1", nil)
	require.Error(t, err)
	require.Len(t, ok.seen, 1, "one failing notifier must not block the rest")
}
