package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/klejdi94/basis/core"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyClass      = "class:%s:%s"
	redisKeyMeta       = "meta:%s:%s"
	redisKeyProduction = "production:%s"
	redisKeyIDs        = "index:ids"
	redisKeyVersions   = "index:versions:%s"
)

// RedisRegistry stores class definitions in Redis. Ids and versions are
// query-escaped inside keys. Keys: class:id:version (JSON),
// meta:id:version (JSON), production:id (version), index:ids (SET),
// index:versions:id (SET).
type RedisRegistry struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRegistry creates a registry using the given Redis client. Optional key prefix (e.g. "basis:").
func NewRedisRegistry(client redis.UniversalClient, prefix string) *RedisRegistry {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisRegistry{client: client, prefix: prefix}
}

// key fills format with query-escaped parts, so ":" inside an id or version
// cannot shift the key boundaries.
func (r *RedisRegistry) key(format string, parts ...string) string {
	args := make([]interface{}, len(parts))
	for i, p := range parts {
		args[i] = url.QueryEscape(p)
	}
	return r.prefix + fmt.Sprintf(format, args...)
}

func (r *RedisRegistry) getMeta(ctx context.Context, id, version string) (entryMeta, error) {
	var meta entryMeta
	data, err := r.client.Get(ctx, r.key(redisKeyMeta, id, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return meta, core.ErrClassNotFound
	}
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("redis registry meta decode: %w", err)
	}
	return meta, nil
}

func (r *RedisRegistry) putMeta(ctx context.Context, pipe redis.Pipeliner, id, version string, meta entryMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	pipe.Set(ctx, r.key(redisKeyMeta, id, version), data, 0)
	return nil
}

// Store saves a class in Redis.
func (r *RedisRegistry) Store(ctx context.Context, class *core.Class) error {
	if err := checkClass("redis", class); err != nil {
		return err
	}
	c := class.Copy()
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("redis registry encode: %w", err)
	}
	meta, err := r.getMeta(ctx, c.ID, c.Version)
	if errors.Is(err, core.ErrClassNotFound) {
		meta = entryMeta{Stage: StageDev, CreatedAt: c.CreatedAt}
	} else if err != nil {
		return err
	}
	meta.UpdatedAt = now
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(redisKeyClass, c.ID, c.Version), data, 0)
		if err := r.putMeta(ctx, pipe, c.ID, c.Version, meta); err != nil {
			return err
		}
		pipe.SAdd(ctx, r.key(redisKeyIDs), c.ID)
		pipe.SAdd(ctx, r.key(redisKeyVersions, c.ID), c.Version)
		return nil
	})
	return err
}

// Get retrieves a class by id and version.
func (r *RedisRegistry) Get(ctx context.Context, id, version string) (*core.Class, error) {
	data, err := r.client.Get(ctx, r.key(redisKeyClass, id, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	var c core.Class
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("redis registry decode: %w", err)
	}
	return &c, nil
}

// GetProduction returns the production version for the id.
func (r *RedisRegistry) GetProduction(ctx context.Context, id string) (*core.Class, error) {
	version, err := r.client.Get(ctx, r.key(redisKeyProduction, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id, version)
}

// List returns classes matching the filter (scans the index sets).
func (r *RedisRegistry) List(ctx context.Context, filter Filter) ([]*core.Class, error) {
	ids, err := r.client.SMembers(ctx, r.key(redisKeyIDs)).Result()
	if err != nil {
		return nil, err
	}
	var out []*core.Class
	for _, id := range ids {
		if len(filter.IDs) > 0 && !contains(filter.IDs, id) {
			continue
		}
		vers, err := r.client.SMembers(ctx, r.key(redisKeyVersions, id)).Result()
		if err != nil {
			return nil, err
		}
		for _, version := range vers {
			meta, err := r.getMeta(ctx, id, version)
			if err != nil || !meta.matches(filter) {
				continue
			}
			c, err := r.Get(ctx, id, version)
			if err != nil {
				continue
			}
			out = append(out, c)
		}
	}
	return page(out, filter), nil
}

// ListVersions returns version info for an id, oldest version first.
func (r *RedisRegistry) ListVersions(ctx context.Context, id string) ([]VersionInfo, error) {
	vers, err := r.client.SMembers(ctx, r.key(redisKeyVersions, id)).Result()
	if err != nil {
		return nil, err
	}
	var infos []VersionInfo
	for _, version := range vers {
		meta, err := r.getMeta(ctx, id, version)
		if err != nil {
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

// Promote sets the stage for id+version and updates the production pointer.
func (r *RedisRegistry) Promote(ctx context.Context, id, version string, stage Stage) error {
	meta, err := r.getMeta(ctx, id, version)
	if err != nil {
		return err
	}
	prodKey := r.key(redisKeyProduction, id)
	prev, err := r.client.Get(ctx, prodKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	var prevMeta entryMeta
	demote := stage == StageProduction && prev != "" && prev != version
	if demote {
		if prevMeta, err = r.getMeta(ctx, id, prev); err != nil {
			demote = false
		}
	}
	meta.Stage = stage
	meta.UpdatedAt = time.Now()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := r.putMeta(ctx, pipe, id, version, meta); err != nil {
			return err
		}
		switch {
		case stage == StageProduction:
			pipe.Set(ctx, prodKey, version, 0)
			if demote {
				prevMeta.Stage = StageStaging
				return r.putMeta(ctx, pipe, id, prev, prevMeta)
			}
		case prev == version:
			pipe.Del(ctx, prodKey)
		}
		return nil
	})
	return err
}

// Delete removes a class version from Redis.
func (r *RedisRegistry) Delete(ctx context.Context, id, version string) error {
	n, err := r.client.Exists(ctx, r.key(redisKeyClass, id, version)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrClassNotFound
	}
	prodKey := r.key(redisKeyProduction, id)
	prod, err := r.client.Get(ctx, prodKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(redisKeyClass, id, version), r.key(redisKeyMeta, id, version))
		pipe.SRem(ctx, r.key(redisKeyVersions, id), version)
		if prod == version {
			pipe.Del(ctx, prodKey)
		}
		return nil
	})
	if err != nil {
		return err
	}
	left, err := r.client.SCard(ctx, r.key(redisKeyVersions, id)).Result()
	if err != nil {
		return err
	}
	if left == 0 {
		return r.client.SRem(ctx, r.key(redisKeyIDs), id).Err()
	}
	return nil
}

// Tag sets tags for a class version.
func (r *RedisRegistry) Tag(ctx context.Context, id, version string, tags []string) error {
	meta, err := r.getMeta(ctx, id, version)
	if err != nil {
		return err
	}
	meta.Tags = append([]string(nil), tags...)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return r.putMeta(ctx, pipe, id, version, meta)
	})
	return err
}
