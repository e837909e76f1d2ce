// Package registry provides versioning and storage backends for class definitions.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klejdi94/basis/core"
)

// Stage represents a deployment stage (e.g. dev, staging, production).
type Stage string

const (
	StageDev        Stage = "dev"
	StageStaging    Stage = "staging"
	StageProduction Stage = "production"
)

// ParseStage converts a case-insensitive stage name.
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case StageDev:
		return StageDev, nil
	case StageStaging:
		return StageStaging, nil
	case StageProduction:
		return StageProduction, nil
	}
	return "", fmt.Errorf("unknown stage %q (want dev|staging|production)", s)
}

// VersionInfo holds metadata about a stored class version.
type VersionInfo struct {
	ID        string
	Version   string
	Stage     Stage
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter limits which classes are returned by List.
type Filter struct {
	IDs    []string
	Stage  Stage
	Tags   []string
	Limit  int
	Offset int
}

const defaultListLimit = 1000

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Registry stores and retrieves versioned class definitions.
type Registry interface {
	Store(ctx context.Context, class *core.Class) error
	Get(ctx context.Context, id, version string) (*core.Class, error)
	GetProduction(ctx context.Context, id string) (*core.Class, error)
	List(ctx context.Context, filter Filter) ([]*core.Class, error)
	ListVersions(ctx context.Context, id string) ([]VersionInfo, error)
	Promote(ctx context.Context, id, version string, stage Stage) error
	Delete(ctx context.Context, id, version string) error
	Tag(ctx context.Context, id, version string, tags []string) error
}

var versionPattern = regexp.MustCompile(`^v?\d+(\.\d+){0,2}([-+][0-9A-Za-z.-]+)?$`)

// checkClass verifies that a class can be stored.
func checkClass(backend string, c *core.Class) error {
	if c == nil {
		return fmt.Errorf("%s registry: class is nil", backend)
	}
	if c.ID == "" || c.Version == "" {
		return fmt.Errorf("%s registry: class id and version are required", backend)
	}
	if !versionPattern.MatchString(c.Version) {
		return fmt.Errorf("%s registry: %q: %w", backend, c.Version, core.ErrInvalidVersion)
	}
	return nil
}

// compareVersions orders dotted numeric versions; non-numeric parts
// compare as strings.
func compareVersions(a, b string) int {
	pa := strings.Split(strings.TrimPrefix(a, "v"), ".")
	pb := strings.Split(strings.TrimPrefix(b, "v"), ".")
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var sa, sb string
		if i < len(pa) {
			sa = pa[i]
		}
		if i < len(pb) {
			sb = pb[i]
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		if errA == nil && errB == nil {
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

func sortVersionInfos(infos []VersionInfo) {
	sort.Slice(infos, func(i, j int) bool {
		return compareVersions(infos[i].Version, infos[j].Version) < 0
	})
}

func sortClasses(cs []*core.Class) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].ID != cs[j].ID {
			return cs[i].ID < cs[j].ID
		}
		return compareVersions(cs[i].Version, cs[j].Version) < 0
	})
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

func hasAll(have, need []string) bool {
	for _, n := range need {
		if !contains(have, n) {
			return false
		}
	}
	return true
}

// entryMeta is the stage/tag record persisted next to each class version.
type entryMeta struct {
	Stage     Stage     `json:"stage"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m entryMeta) matches(filter Filter) bool {
	if filter.Stage != "" && m.Stage != filter.Stage {
		return false
	}
	return len(filter.Tags) == 0 || hasAll(m.Tags, filter.Tags)
}

// page sorts matches and applies the filter's offset and limit.
func page(cs []*core.Class, filter Filter) []*core.Class {
	sortClasses(cs)
	if filter.Offset >= len(cs) {
		return nil
	}
	if filter.Offset > 0 {
		cs = cs[filter.Offset:]
	}
	if n := filter.limit(); len(cs) > n {
		cs = cs[:n]
	}
	return cs
}
