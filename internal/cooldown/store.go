package cooldown

import (
	"context"
	"sync"
	"time"

	"CryptoAdvisor/internal/model"
)

// Store holds the notification history the Gate decides on.
type Store interface {
	Append(ctx context.Context, rec model.NotificationRecord) error
	// Latest returns the newest record for the pair, or nil if none.
	Latest(ctx context.Context, symbol string, typ model.NotificationType) (*model.NotificationRecord, error)
	// Prune drops records older than before.
	Prune(ctx context.Context, before time.Time) error
	// Since returns records at or after after, oldest first.
	Since(ctx context.Context, after time.Time) ([]model.NotificationRecord, error)
}

// MemoryStore is an in-process Store scoped to the application lifetime.
type MemoryStore struct {
	mu      sync.Mutex
	records []model.NotificationRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, rec model.NotificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, symbol string, typ model.NotificationType) (*model.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.Symbol == symbol && r.Type == typ {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Prune(_ context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	for _, r := range m.records {
		if !r.Timestamp.Before(before) {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

func (m *MemoryStore) Since(_ context.Context, after time.Time) ([]model.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.NotificationRecord
	for _, r := range m.records {
		if !r.Timestamp.Before(after) {
			out = append(out, r)
		}
	}
	return out, nil
}
