package repo

import (
	"context"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
)

// MemoryStore is an in-process Store used by tests and local runs without
// Postgres. InTx serializes callers but cannot roll back writes already made.
type MemoryStore struct {
	txMu sync.Mutex

	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*entity.Account
	byEmail map[string]int64
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[int64]*entity.Account),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id int64) (*entity.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return a.Clone(), nil
}

func (m *MemoryStore) Insert(ctx context.Context, a *entity.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[a.Email]; exists {
		return apperr.ErrConflict
	}
	m.nextID++
	now := m.now()
	a.ID = m.nextID
	a.CreatedAt = now
	a.UpdatedAt = now
	m.byID[a.ID] = a.Clone()
	m.byEmail[a.Email] = a.ID
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, a *entity.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[a.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	next := a.Clone()
	next.Email = cur.Email
	next.PasswordHash = cur.PasswordHash
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = m.now()
	m.byID[a.ID] = next
	a.UpdatedAt = next.UpdatedAt
	return nil
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(s Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

// Len reports how many accounts are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

var _ Store = (*MemoryStore)(nil)
