package media

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/df07/go-participating-media/pkg/loaders"
	"github.com/df07/go-participating-media/pkg/vdb"
)

// Registry maps names to media. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	media  map[string]Medium
	assets *vdb.AssetStore
}

// NewRegistry creates an empty registry with its own asset store
func NewRegistry() *Registry {
	return &Registry{
		media:  make(map[string]Medium),
		assets: vdb.NewAssetStore(),
	}
}

// Assets returns the store shared by media created through the registry
func (r *Registry) Assets() *vdb.AssetStore {
	return r.assets
}

// Add registers m under name. Redefining a name is an error.
func (r *Registry) Add(name string, m Medium) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.media[name]; exists {
		return fmt.Errorf("%w: named medium %q redefined", ErrInvalidParameter, name)
	}
	r.media[name] = m
	return nil
}

// Lookup returns the medium registered under name
func (r *Registry) Lookup(name string) (Medium, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.media[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMediumNotFound, name)
	}
	return m, nil
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.media))
	for name := range r.media {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDescription creates and registers every medium of desc. Sparse grid files
// are shared through the registry's asset store. On error nothing from desc stays
// registered: media added by this call are removed and closed. Assets loaded along
// the way remain in the store until Close.
func (r *Registry) LoadDescription(desc *loaders.MediaDescription, opts CreateOptions) (err error) {
	opts.Assets = r.assets
	if opts.BaseDir == "" {
		opts.BaseDir = desc.BaseDir
	}
	opts = opts.withDefaults()

	var added []string
	defer func() {
		if err != nil {
			r.remove(added)
		}
	}()

	for _, stmt := range desc.Media {
		m, err := CreateMedium(stmt.Kind, stmt.Params, stmt.RenderFromMedium, opts)
		if err != nil {
			return fmt.Errorf("medium %q: %w", stmt.Name, err)
		}
		if err := r.Add(stmt.Name, m); err != nil {
			closeMedium(m)
			return err
		}
		added = append(added, stmt.Name)
		opts.Logger.Debugf("Created %s medium %q", stmt.Kind, stmt.Name)
	}
	return nil
}

// remove unregisters and closes the named media
func (r *Registry) remove(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if m, ok := r.media[name]; ok {
			closeMedium(m)
			delete(r.media, name)
		}
	}
}

func closeMedium(m Medium) error {
	if c, ok := m.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Close releases every medium and the shared assets
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for name, m := range r.media {
		if err := closeMedium(m); err != nil {
			errs = append(errs, fmt.Errorf("failed to close medium %q: %w", name, err))
		}
	}
	r.media = make(map[string]Medium)
	errs = append(errs, r.assets.Close())
	return errors.Join(errs...)
}
