package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klejdi94/basis/core"
)

// ErrBlobNotFound is returned by BlobStore.Get for a missing key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a minimal key-value store for S3-compatible backends (e.g. AWS S3, MinIO).
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// S3Registry stores class definitions in a BlobStore. Keys:
// prefix/class/id/version.json, prefix/meta/id/version.json, prefix/production/id.txt.
type S3Registry struct {
	store  BlobStore
	prefix string
}

// NewS3Registry creates a registry using the given BlobStore (e.g. from registry/s3blob) and key prefix.
func NewS3Registry(store BlobStore, prefix string) *S3Registry {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Registry{store: store, prefix: prefix}
}

func (s *S3Registry) classKey(id, version string) string {
	return s.prefix + "class/" + id + "/" + version + ".json"
}

func (s *S3Registry) metaKey(id, version string) string {
	return s.prefix + "meta/" + id + "/" + version + ".json"
}

func (s *S3Registry) productionKey(id string) string {
	return s.prefix + "production/" + id + ".txt"
}

func (s *S3Registry) getJSON(ctx context.Context, key string, v interface{}) error {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrBlobNotFound) {
		return core.ErrClassNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("s3 registry decode %s: %w", key, err)
	}
	return nil
}

func (s *S3Registry) putJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("s3 registry encode %s: %w", key, err)
	}
	return s.store.Put(ctx, key, data)
}

func (s *S3Registry) production(ctx context.Context, id string) (string, error) {
	data, err := s.store.Get(ctx, s.productionKey(id))
	if errors.Is(err, ErrBlobNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Store saves a class to the blob store.
func (s *S3Registry) Store(ctx context.Context, class *core.Class) error {
	if err := checkClass("s3", class); err != nil {
		return err
	}
	c := class.Copy()
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	var meta entryMeta
	err := s.getJSON(ctx, s.metaKey(c.ID, c.Version), &meta)
	if errors.Is(err, core.ErrClassNotFound) {
		meta = entryMeta{Stage: StageDev, CreatedAt: c.CreatedAt}
	} else if err != nil {
		return err
	}
	meta.UpdatedAt = now
	if err := s.putJSON(ctx, s.classKey(c.ID, c.Version), c); err != nil {
		return err
	}
	return s.putJSON(ctx, s.metaKey(c.ID, c.Version), meta)
}

// Get retrieves a class by id and version.
func (s *S3Registry) Get(ctx context.Context, id, version string) (*core.Class, error) {
	var c core.Class
	if err := s.getJSON(ctx, s.classKey(id, version), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetProduction returns the production version for the id.
func (s *S3Registry) GetProduction(ctx context.Context, id string) (*core.Class, error) {
	version, err := s.production(ctx, id)
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, core.ErrClassNotFound
	}
	return s.Get(ctx, id, version)
}

// splitClassKey parses "class/id/version.json" below the prefix.
func (s *S3Registry) splitClassKey(key string) (id, version string, ok bool) {
	if !strings.HasSuffix(key, ".json") {
		return "", "", false
	}
	trim := strings.TrimSuffix(strings.TrimPrefix(key, s.prefix+"class/"), ".json")
	i := strings.LastIndex(trim, "/")
	if i <= 0 || i == len(trim)-1 {
		return "", "", false
	}
	return trim[:i], trim[i+1:], true
}

// List returns classes matching the filter by listing the class prefix.
func (s *S3Registry) List(ctx context.Context, filter Filter) ([]*core.Class, error) {
	keys, err := s.store.List(ctx, s.prefix+"class/")
	if err != nil {
		return nil, err
	}
	var out []*core.Class
	for _, key := range keys {
		id, version, ok := s.splitClassKey(key)
		if !ok {
			continue
		}
		if len(filter.IDs) > 0 && !contains(filter.IDs, id) {
			continue
		}
		var meta entryMeta
		if err := s.getJSON(ctx, s.metaKey(id, version), &meta); err != nil || !meta.matches(filter) {
			continue
		}
		c, err := s.Get(ctx, id, version)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return page(out, filter), nil
}

// ListVersions returns version info for an id, oldest version first.
func (s *S3Registry) ListVersions(ctx context.Context, id string) ([]VersionInfo, error) {
	keys, err := s.store.List(ctx, s.prefix+"meta/"+id+"/")
	if err != nil {
		return nil, err
	}
	var infos []VersionInfo
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		version := strings.TrimSuffix(strings.TrimPrefix(key, s.prefix+"meta/"+id+"/"), ".json")
		if strings.Contains(version, "/") {
			continue
		}
		var meta entryMeta
		if err := s.getJSON(ctx, key, &meta); err != nil {
			continue
		}
		infos = append(infos, VersionInfo{
			ID:        id,
			Version:   version,
			Stage:     meta.Stage,
			Tags:      meta.Tags,
			CreatedAt: meta.CreatedAt,
			UpdatedAt: meta.UpdatedAt,
		})
	}
	sortVersionInfos(infos)
	return infos, nil
}

// Promote sets the stage and production pointer.
func (s *S3Registry) Promote(ctx context.Context, id, version string, stage Stage) error {
	var meta entryMeta
	if err := s.getJSON(ctx, s.metaKey(id, version), &meta); err != nil {
		return err
	}
	prev, err := s.production(ctx, id)
	if err != nil {
		return err
	}
	meta.Stage = stage
	meta.UpdatedAt = time.Now()
	if err := s.putJSON(ctx, s.metaKey(id, version), meta); err != nil {
		return err
	}
	switch {
	case stage == StageProduction:
		if prev != "" && prev != version {
			var pm entryMeta
			if err := s.getJSON(ctx, s.metaKey(id, prev), &pm); err == nil {
				pm.Stage = StageStaging
				if err := s.putJSON(ctx, s.metaKey(id, prev), pm); err != nil {
					return err
				}
			}
		}
		return s.store.Put(ctx, s.productionKey(id), []byte(version))
	case prev == version:
		return s.store.Delete(ctx, s.productionKey(id))
	}
	return nil
}

// Delete removes a class version.
func (s *S3Registry) Delete(ctx context.Context, id, version string) error {
	var meta entryMeta
	if err := s.getJSON(ctx, s.metaKey(id, version), &meta); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.classKey(id, version)); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.metaKey(id, version)); err != nil {
		return err
	}
	prod, err := s.production(ctx, id)
	if err != nil {
		return err
	}
	if prod == version {
		return s.store.Delete(ctx, s.productionKey(id))
	}
	return nil
}

// Tag updates meta with new tags.
func (s *S3Registry) Tag(ctx context.Context, id, version string, tags []string) error {
	var meta entryMeta
	if err := s.getJSON(ctx, s.metaKey(id, version), &meta); err != nil {
		return err
	}
	meta.Tags = append([]string(nil), tags...)
	return s.putJSON(ctx, s.metaKey(id, version), meta)
}
