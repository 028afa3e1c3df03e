package rag

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

var (
	// ErrIndexNotFound is returned by Load when the tenant has never built
	// an index (or it was torn down).
	ErrIndexNotFound = errors.New("vector index not found")
	// ErrNoChunks is returned by Build for an empty chunk set. An empty set
	// must never produce a usable handle; "no index" and "index with no
	// relevant results" have to stay distinguishable.
	ErrNoChunks = errors.New("no chunks to index")
)

const indexFileName = "index.gob"

// Entry is one (chunk, vector) pair held by a tenant's index.
type Entry struct {
	ChunkID    string
	DocumentID uint
	PageNumber int
	Text       string
	Vector     []float32
}

// SearchResult pairs an entry with its similarity to the query.
type SearchResult struct {
	Entry Entry
	Score float32
}

// Index is an in-memory similarity-search structure over one tenant's chunks.
// It is immutable once built; deletions are handled by a wholesale rebuild.
type Index struct {
	entries []Entry
	dim     int
}

// Search returns the k entries most similar to query, best first. Ties keep
// insertion order, so results are deterministic for a fixed index.
func (ix *Index) Search(query []float32, k int) []SearchResult {
	if len(query) == 0 || k <= 0 {
		return nil
	}
	results := make([]SearchResult, 0, len(ix.entries))
	for _, e := range ix.entries {
		results = append(results, SearchResult{
			Entry: e,
			Score: cosineSimilarity(query, e.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}

// Len reports how many entries the index holds.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// IndexStore persists one index per tenant under baseDir, each tenant in its
// own directory. No operation ever touches another tenant's directory.
type IndexStore struct {
	baseDir string
}

func NewIndexStore(baseDir string) *IndexStore {
	return &IndexStore{baseDir: baseDir}
}

type indexFile struct {
	Entries []Entry
	Dim     int
}

// Load reads the persisted index for the tenant, ErrIndexNotFound if absent.
func (s *IndexStore) Load(companyID uint) (*Index, error) {
	f, err := os.Open(s.indexPath(companyID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("open index file failed: %w", err)
	}
	defer f.Close()

	var file indexFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode index file failed: %w", err)
	}
	if len(file.Entries) == 0 {
		return nil, ErrIndexNotFound
	}
	return &Index{entries: file.Entries, dim: file.Dim}, nil
}

// Build constructs a fresh index from entries and persists it, replacing any
// prior index for the tenant. The write goes through a temp file and an
// atomic rename so a crash never leaves a torn index behind.
func (s *IndexStore) Build(companyID uint, entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, ErrNoChunks
	}
	dim := len(entries[0].Vector)
	for i := range entries {
		if len(entries[i].Vector) != dim {
			return nil, fmt.Errorf("entry %d has dimension %d, want %d", i, len(entries[i].Vector), dim)
		}
	}

	dir := s.tenantDir(companyID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir failed: %w", err)
	}

	path := s.indexPath(companyID)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create index temp file failed: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(indexFile{Entries: entries, Dim: dim}); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("encode index failed: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("close index temp file failed: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("replace index file failed: %w", err)
	}

	return &Index{entries: entries, dim: dim}, nil
}

// Delete removes the tenant's index directory entirely.
func (s *IndexStore) Delete(companyID uint) error {
	if err := os.RemoveAll(s.tenantDir(companyID)); err != nil {
		return fmt.Errorf("remove index dir failed: %w", err)
	}
	return nil
}

// Exists reports whether a persisted index is present for the tenant.
func (s *IndexStore) Exists(companyID uint) bool {
	_, err := os.Stat(s.indexPath(companyID))
	return err == nil
}

func (s *IndexStore) tenantDir(companyID uint) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("company_%d", companyID))
}

func (s *IndexStore) indexPath(companyID uint) string {
	return filepath.Join(s.tenantDir(companyID), indexFileName)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
