package verification

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Updates on the same id are serialized
// by a per-key mutex; updates on different ids run in parallel.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]AddressRequest
	numbers map[string]string
	locks   *keyedMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]AddressRequest),
		numbers: make(map[string]string),
		locks:   newKeyedMutex(),
	}
}

func (m *MemoryStore) Create(_ context.Context, req AddressRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[req.ID]; exists {
		return fmt.Errorf("verification: request %s already exists", req.ID)
	}
	m.records[req.ID] = req.clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (AddressRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return AddressRequest{}, ErrNotFound
	}
	return rec.clone(), nil
}

func (m *MemoryStore) List(_ context.Context, filters ListFilters) ([]AddressRequest, int, error) {
	filters = filters.normalized()

	m.mu.RLock()
	matched := make([]AddressRequest, 0, len(m.records))
	for _, rec := range m.records {
		if filters.Status != "" && rec.Status != filters.Status {
			continue
		}
		if filters.ResidentID != "" && rec.ResidentID != filters.ResidentID {
			continue
		}
		matched = append(matched, rec.clone())
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := filters.offset()
	if start >= total {
		return []AddressRequest{}, total, nil
	}
	end := min(start+filters.PageSize, total)
	return matched[start:end], total, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*AddressRequest) error) (AddressRequest, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	m.mu.RLock()
	current, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return AddressRequest{}, ErrNotFound
	}

	working := current.clone()
	if err := fn(&working); err != nil {
		return AddressRequest{}, err
	}
	working.Version = current.Version + 1

	m.mu.Lock()
	defer m.mu.Unlock()
	if working.Certificate != nil && current.Certificate == nil {
		if holder, taken := m.numbers[working.Certificate.Number]; taken && holder != id {
			return AddressRequest{}, ErrCertificateNumberTaken
		}
		m.numbers[working.Certificate.Number] = id
	}
	m.records[id] = working

	return working.clone(), nil
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is held and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
