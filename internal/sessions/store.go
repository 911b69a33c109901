package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store tracks issued access tokens so logout can revoke them without
// waiting for JWT expiry. Lookups return false for unknown or expired
// tokens.
type Store interface {
	Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Get(ctx context.Context, token string) (uuid.UUID, bool, error)
	Delete(ctx context.Context, token string) error
}

type memoryEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (ms *memoryStore) Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[token] = memoryEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (ms *memoryStore) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	ms.mu.RLock()
	entry, ok := ms.entries[token]
	ms.mu.RUnlock()
	if !ok {
		return uuid.Nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		ms.mu.Lock()
		delete(ms.entries, token)
		ms.mu.Unlock()
		return uuid.Nil, false, nil
	}
	return entry.userID, true, nil
}

func (ms *memoryStore) Delete(ctx context.Context, token string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, token)
	return nil
}
