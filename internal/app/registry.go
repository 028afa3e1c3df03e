package app

import (
	"fmt"
	"sync"

	"carely/internal/rag"
)

// IndexRegistry keeps a per-company cache of loaded vector indexes in
// front of the on-disk IndexStore, so query traffic does not reread the
// index file on every question.
type IndexRegistry struct {
	store *rag.IndexStore

	mu    sync.RWMutex
	cache map[uint]*rag.Index
}

func NewIndexRegistry(store *rag.IndexStore) *IndexRegistry {
	return &IndexRegistry{
		store: store,
		cache: make(map[uint]*rag.Index),
	}
}

// Index returns the company's index, loading it from disk on first use.
// Returns rag.ErrIndexNotFound when the company has no index yet.
func (r *IndexRegistry) Index(companyID uint) (*rag.Index, error) {
	r.mu.RLock()
	idx, ok := r.cache[companyID]
	r.mu.RUnlock()
	if ok {
		return idx, nil
	}

	loaded, err := r.store.Load(companyID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[companyID] = loaded
	r.mu.Unlock()
	return loaded, nil
}

// Rebuild replaces the company's index with one built from entries and
// refreshes the cache. An empty entry set removes the index entirely.
func (r *IndexRegistry) Rebuild(companyID uint, entries []rag.Entry) error {
	if len(entries) == 0 {
		return r.Drop(companyID)
	}

	idx, err := r.store.Build(companyID, entries)
	if err != nil {
		return fmt.Errorf("rebuild index for company %d: %w", companyID, err)
	}

	r.mu.Lock()
	r.cache[companyID] = idx
	r.mu.Unlock()
	return nil
}

// Drop removes the company's index from disk and from the cache.
func (r *IndexRegistry) Drop(companyID uint) error {
	r.mu.Lock()
	delete(r.cache, companyID)
	r.mu.Unlock()

	return r.store.Delete(companyID)
}

// Ready reports whether the company has a usable index.
func (r *IndexRegistry) Ready(companyID uint) bool {
	r.mu.RLock()
	_, ok := r.cache[companyID]
	r.mu.RUnlock()
	if ok {
		return true
	}
	return r.store.Exists(companyID)
}
