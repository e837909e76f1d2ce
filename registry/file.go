package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klejdi94/basis/core"
)

const fileMetaName = "_meta.json"

// FileRegistry stores class definitions as JSON files in a directory.
// File names are {id}@{version}.json with both parts query-escaped, so
// distinct id/version pairs never share a file; stages, tags and the
// production pointer live in _meta.json.
type FileRegistry struct {
	dir        string
	mu         sync.RWMutex
	production map[string]string
	meta       map[string]map[string]entryMeta
}

type fileMeta struct {
	Production map[string]string               `json:"production"`
	Meta       map[string]map[string]entryMeta `json:"meta"`
}

// NewFileRegistry creates a file-based registry rooted at dir.
func NewFileRegistry(dir string) (*FileRegistry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("file registry: %w", err)
	}
	r := &FileRegistry{
		dir:        dir,
		production: make(map[string]string),
		meta:       make(map[string]map[string]entryMeta),
	}
	if err := r.loadMeta(); err != nil {
		return nil, fmt.Errorf("file registry meta: %w", err)
	}
	return r, nil
}

// escapedName query-escapes both parts; "@" is always escaped inside them.
func escapedName(id, version string) string {
	return url.QueryEscape(id) + "@" + url.QueryEscape(version) + ".json"
}

func (f *FileRegistry) filename(id, version string) string {
	return filepath.Join(f.dir, escapedName(id, version))
}

func (f *FileRegistry) loadMeta() error {
	data, err := os.ReadFile(filepath.Join(f.dir, fileMetaName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var m fileMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m.Production != nil {
		f.production = m.Production
	}
	if m.Meta != nil {
		f.meta = m.Meta
	}
	return nil
}

// saveMeta must be called with f.mu held.
func (f *FileRegistry) saveMeta() error {
	data, err := json.MarshalIndent(fileMeta{Production: f.production, Meta: f.meta}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(f.dir, fileMetaName), data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *FileRegistry) read(id, version string) (*core.Class, error) {
	data, err := os.ReadFile(f.filename(id, version))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	var c core.Class
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("file registry decode: %w", err)
	}
	return &c, nil
}

// Store saves a class as a JSON file.
func (f *FileRegistry) Store(ctx context.Context, class *core.Class) error {
	if err := checkClass("file", class); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := class.Copy()
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	payload, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("file registry encode: %w", err)
	}
	if err := writeFileAtomic(f.filename(c.ID, c.Version), payload); err != nil {
		return err
	}
	if f.meta[c.ID] == nil {
		f.meta[c.ID] = make(map[string]entryMeta)
	}
	meta, ok := f.meta[c.ID][c.Version]
	if !ok {
		meta = entryMeta{Stage: StageDev, CreatedAt: c.CreatedAt}
	}
	meta.UpdatedAt = now
	f.meta[c.ID][c.Version] = meta
	return f.saveMeta()
}

// Get reads a class from disk.
func (f *FileRegistry) Get(ctx context.Context, id, version string) (*core.Class, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.read(id, version)
}

// GetProduction returns the promoted production version for id.
func (f *FileRegistry) GetProduction(ctx context.Context, id string) (*core.Class, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	version, ok := f.production[id]
	if !ok || version == "" {
		return nil, core.ErrClassNotFound
	}
	return f.read(id, version)
}

// List lists classes matching the filter using the meta index.
func (f *FileRegistry) List(ctx context.Context, filter Filter) ([]*core.Class, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*core.Class
	for id, versions := range f.meta {
		if len(filter.IDs) > 0 && !contains(filter.IDs, id) {
			continue
		}
		for version, meta := range versions {
			if !meta.matches(filter) {
				continue
			}
			c, err := f.read(id, version)
			if err != nil {
				continue
			}
			out = append(out, c)
		}
	}
	return page(out, filter), nil
}

// ListVersions returns version info for an id, oldest version first.
func (f *FileRegistry) ListVersions(ctx context.Context, id string) ([]VersionInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var infos []VersionInfo
	for version, meta := range f.meta[id] {
		infos = append(infos, VersionInfo{
			ID:        id,
			Version:   version,
			Stage:     meta.Stage,
			Tags:      append([]string(nil), meta.Tags...),
			CreatedAt: meta.CreatedAt,
			UpdatedAt: meta.UpdatedAt,
		})
	}
	sortVersionInfos(infos)
	return infos, nil
}

// Promote sets the stage for id+version and updates the production pointer.
func (f *FileRegistry) Promote(ctx context.Context, id, version string, stage Stage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.meta[id][version]
	if !ok {
		return core.ErrClassNotFound
	}
	if stage == StageProduction {
		if prev, ok := f.production[id]; ok && prev != version {
			pm := f.meta[id][prev]
			pm.Stage = StageStaging
			f.meta[id][prev] = pm
		}
		f.production[id] = version
	} else if f.production[id] == version {
		delete(f.production, id)
	}
	meta.Stage = stage
	meta.UpdatedAt = time.Now()
	f.meta[id][version] = meta
	return f.saveMeta()
}

// Delete removes the class file and its meta entry.
func (f *FileRegistry) Delete(ctx context.Context, id, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.meta[id][version]; !ok {
		return core.ErrClassNotFound
	}
	if err := os.Remove(f.filename(id, version)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	delete(f.meta[id], version)
	if len(f.meta[id]) == 0 {
		delete(f.meta, id)
	}
	if f.production[id] == version {
		delete(f.production, id)
	}
	return f.saveMeta()
}

// Tag sets tags for a class version.
func (f *FileRegistry) Tag(ctx context.Context, id, version string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.meta[id][version]
	if !ok {
		return core.ErrClassNotFound
	}
	meta.Tags = append([]string(nil), tags...)
	f.meta[id][version] = meta
	return f.saveMeta()
}
