package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/sitenotifier/internal/domain"
	"github.com/hamed0406/sitenotifier/internal/store"
)

var _ store.SiteStore = (*Store)(nil)

// Store keeps the site list in memory. Load and Save hand out copies, so
// callers can never modify the stored list by accident.
type Store struct {
	mu    sync.RWMutex
	sites []domain.Site
	saves int
}

func New(sites ...domain.Site) *Store {
	return &Store{sites: cloneAll(sites)}
}

func (m *Store) Load(ctx context.Context) ([]domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.sites), nil
}

func (m *Store) Save(ctx context.Context, sites []domain.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites = cloneAll(sites)
	m.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func cloneAll(in []domain.Site) []domain.Site {
	out := make([]domain.Site, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
