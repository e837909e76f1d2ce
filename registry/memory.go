package registry

import (
	"context"
	"sync"
	"time"

	"github.com/klejdi94/basis/core"
)

// MemoryRegistry is an in-memory registry for class definitions (testing and single-process use).
type MemoryRegistry struct {
	mu         sync.RWMutex
	classes    map[string]map[string]*core.Class // id -> version -> class
	meta       map[string]map[string]entryMeta   // id -> version -> stage/tags
	production map[string]string                 // id -> version
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		classes:    make(map[string]map[string]*core.Class),
		meta:       make(map[string]map[string]entryMeta),
		production: make(map[string]string),
	}
}

func (m *MemoryRegistry) lookup(id, version string) (*core.Class, bool) {
	c, ok := m.classes[id][version]
	return c, ok
}

// Store saves a class. Overwrites if id+version already exists; the stage
// and tags of an existing version are kept.
func (m *MemoryRegistry) Store(ctx context.Context, class *core.Class) error {
	if err := checkClass("memory", class); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.classes[class.ID] == nil {
		m.classes[class.ID] = make(map[string]*core.Class)
		m.meta[class.ID] = make(map[string]entryMeta)
	}
	// Copy so caller cannot mutate the stored class
	c := class.Copy()
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.classes[class.ID][class.Version] = c
	meta, ok := m.meta[class.ID][class.Version]
	if !ok {
		meta = entryMeta{Stage: StageDev, CreatedAt: c.CreatedAt}
	}
	meta.UpdatedAt = now
	m.meta[class.ID][class.Version] = meta
	return nil
}

// Get returns a class by id and version.
func (m *MemoryRegistry) Get(ctx context.Context, id, version string) (*core.Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.lookup(id, version)
	if !ok {
		return nil, core.ErrClassNotFound
	}
	return c.Copy(), nil
}

// GetProduction returns the class currently promoted to production for the id.
func (m *MemoryRegistry) GetProduction(ctx context.Context, id string) (*core.Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	version, ok := m.production[id]
	if !ok {
		return nil, core.ErrClassNotFound
	}
	c, ok := m.lookup(id, version)
	if !ok {
		return nil, core.ErrClassNotFound
	}
	return c.Copy(), nil
}

// List returns classes matching the filter, ordered by id and version.
func (m *MemoryRegistry) List(ctx context.Context, filter Filter) ([]*core.Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*core.Class
	for id, versions := range m.classes {
		if len(filter.IDs) > 0 && !contains(filter.IDs, id) {
			continue
		}
		for v, c := range versions {
			if !m.meta[id][v].matches(filter) {
				continue
			}
			out = append(out, c.Copy())
		}
	}
	return page(out, filter), nil
}

// ListVersions returns version info for an id, oldest version first.
func (m *MemoryRegistry) ListVersions(ctx context.Context, id string) ([]VersionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var infos []VersionInfo
	for v, c := range m.classes[id] {
		meta := m.meta[id][v]
		infos = append(infos, VersionInfo{
			ID:        id,
			Version:   v,
			Stage:     meta.Stage,
			Tags:      append([]string(nil), meta.Tags...),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	sortVersionInfos(infos)
	return infos, nil
}

// Promote sets the stage for a given id+version. Promoting to production
// demotes the previous production version to staging.
func (m *MemoryRegistry) Promote(ctx context.Context, id, version string, stage Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(id, version); !ok {
		return core.ErrClassNotFound
	}
	if stage == StageProduction {
		if prev, ok := m.production[id]; ok && prev != version {
			pm := m.meta[id][prev]
			pm.Stage = StageStaging
			m.meta[id][prev] = pm
		}
		m.production[id] = version
	} else if m.production[id] == version {
		delete(m.production, id)
	}
	meta := m.meta[id][version]
	meta.Stage = stage
	meta.UpdatedAt = time.Now()
	m.meta[id][version] = meta
	return nil
}

// Delete removes a class version.
func (m *MemoryRegistry) Delete(ctx context.Context, id, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(id, version); !ok {
		return core.ErrClassNotFound
	}
	delete(m.classes[id], version)
	delete(m.meta[id], version)
	if len(m.classes[id]) == 0 {
		delete(m.classes, id)
		delete(m.meta, id)
	}
	if m.production[id] == version {
		delete(m.production, id)
	}
	return nil
}

// Tag sets tags for a class version.
func (m *MemoryRegistry) Tag(ctx context.Context, id, version string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(id, version); !ok {
		return core.ErrClassNotFound
	}
	meta := m.meta[id][version]
	meta.Tags = append([]string(nil), tags...)
	m.meta[id][version] = meta
	return nil
}
