package memory

import (
	"context"
	"sync"
)

// Allowlist is an in-memory allowlist store.
type Allowlist struct {
	mu  sync.RWMutex
	ids []string
	set map[string]struct{}
}

// NewAllowlist returns a store pre-populated with ids.
func NewAllowlist(ids ...string) *Allowlist {
	s := &Allowlist{set: make(map[string]struct{})}
	for _, id := range ids {
		_ = s.Insert(context.Background(), id)
	}
	return s
}

func (s *Allowlist) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ids...), nil
}

func (s *Allowlist) Exists(ctx context.Context, accountID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[accountID]
	return ok, nil
}

// Insert records accountID. Inserting an existing id leaves the store unchanged.
func (s *Allowlist) Insert(ctx context.Context, accountID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[accountID]; ok {
		return nil
	}
	s.set[accountID] = struct{}{}
	s.ids = append(s.ids, accountID)
	return nil
}
