package session

import (
	"context"
	"sync"
)

// Store persists JSON-serialisable session snapshots keyed by string. It is
// the collaborator that lets cart, bill and user state survive restarts; the
// domain services never touch the backing storage directly.
type Store interface {
	// Save stores v under key, overwriting any previous value.
	Save(ctx context.Context, key string, v any) error
	// Load reads the value under key into dest. It reports whether the key existed.
	Load(ctx context.Context, key string, dest any) (bool, error)
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Key builders shared by the services that share one session namespace.
const (
	keyPrefixCart  = "session:cart:"
	keyPrefixBill  = "session:bill:"
	keyPrefixUser  = "session:user:"
	keyPrefixPhase = "session:phase:"
)

// CartKey returns the session key holding the cart snapshot for a user.
func CartKey(userID string) string { return keyPrefixCart + userID }

// BillKey returns the session key holding the bill snapshot for a user.
func BillKey(userID string) string { return keyPrefixBill + userID }

// UserKey returns the session key holding the user record for a user.
func UserKey(userID string) string { return keyPrefixUser + userID }

// PhaseKey returns the session key holding the lifecycle phase for a user.
func PhaseKey(userID string) string { return keyPrefixPhase + userID }

// MemoryStore is an in-process Store used by tests and Redis-less runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, key string, v any) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = data
	m.mu.Unlock()
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	data, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.data, key)
	}
	m.mu.Unlock()
	return nil
}
