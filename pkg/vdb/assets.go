package vdb

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// AssetID identifies a loaded grid asset
type AssetID string

type asset struct {
	id     AssetID
	path   string
	handle *GridHandle
}

// AssetStore loads grid asset files once and shares the handles between media.
// Closing the store releases every buffer it owns.
type AssetStore struct {
	mu     sync.Mutex
	byPath map[string]*asset
	byID   map[AssetID]*asset
}

// NewAssetStore creates an empty store
func NewAssetStore() *AssetStore {
	return &AssetStore{
		byPath: make(map[string]*asset),
		byID:   make(map[AssetID]*asset),
	}
}

func makeAssetID() AssetID {
	return AssetID(uuid.NewString())
}

// Load returns the handle for filename, reading it on first use
func (s *AssetStore) Load(filename string) (*GridHandle, AssetID, error) {
	path := filepath.Clean(filename)

	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byPath[path]; ok {
		return a.handle, a.id, nil
	}

	h, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	a := &asset{id: makeAssetID(), path: path, handle: h}
	s.byPath[path] = a
	s.byID[a.id] = a
	return h, a.id, nil
}

// Add registers an already decoded handle, e.g. one built in memory
func (s *AssetStore) Add(h *GridHandle) AssetID {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &asset{id: makeAssetID(), handle: h}
	s.byID[a.id] = a
	return a.id
}

// Get returns a previously loaded handle
func (s *AssetStore) Get(id AssetID) (*GridHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return a.handle, true
}

// Len returns the number of assets held
func (s *AssetStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Close releases every asset. The first error is returned.
func (s *AssetStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for id, a := range s.byID {
		if err := a.handle.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to release asset %s: %w", id, err)
		}
	}
	s.byPath = make(map[string]*asset)
	s.byID = make(map[AssetID]*asset)
	return firstErr
}
