package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klejdi94/basis/core"
	"github.com/klejdi94/basis/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const pointClass = `{
  "id": "Geometry::Point",
  "version": "1.0.0",
  "name": "point",
  "fields": [
    {"name": "x", "type": "number", "required": true},
    {"name": "y", "type": "number", "default": 0},
    {"name": "label", "type": "string", "default": "origin"}
  ]
}`

func newTestApp() *app {
	return &app{logger: zap.NewNop(), reg: registry.NewMemoryRegistry()}
}

func run(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a.in = strings.NewReader(stdin)
	a.out = &out
	root := newRootCmd(a)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := a.execute(root)
	return out.String(), err
}

func TestStorePromoteConstruct(t *testing.T) {
	a := newTestApp()
	out, err := run(t, a, pointClass, "store")
	require.NoError(t, err)
	assert.Equal(t, "stored Geometry::Point@1.0.0\n", out)

	_, err = run(t, a, "", "promote", "Geometry::Point", "1.0.0")
	require.NoError(t, err)

	out, err = run(t, a, "", "construct", "Geometry::Point", "x=3")
	require.NoError(t, err)
	var resolved map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &resolved))
	assert.Equal(t, 3.0, resolved["x"])
	assert.Equal(t, 0.0, resolved["y"])
	assert.Equal(t, "origin", resolved["label"])
}

func TestConstruct_MissingField(t *testing.T) {
	a := newTestApp()
	_, err := run(t, a, pointClass, "store")
	require.NoError(t, err)

	_, err = run(t, a, "", "construct", "Geometry::Point", "1.0.0", "label=corner")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingValue)
	assert.Equal(t, "geometry.point error - No value specified for x", err.Error())
}

func TestConstruct_FileWithOverrides(t *testing.T) {
	a := newTestApp()
	_, err := run(t, a, pointClass, "store")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "point.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x: 1\ny: 2\n"), 0o644))

	out, err := run(t, a, "", "construct", "Geometry::Point", "1.0.0", "-f", path, "y=5")
	require.NoError(t, err)
	var resolved map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &resolved))
	assert.Equal(t, 1.0, resolved["x"])
	assert.Equal(t, 5.0, resolved["y"])
}

func TestVersionsAndTag(t *testing.T) {
	a := newTestApp()
	_, err := run(t, a, pointClass, "store")
	require.NoError(t, err)
	_, err = run(t, a, "", "tag", "Geometry::Point", "1.0.0", "2d", "stable")
	require.NoError(t, err)

	out, err := run(t, a, "", "versions", "Geometry::Point")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0\tdev\t2d,stable\n", out)

	out, err = run(t, a, "", "list", "--tag", "stable")
	require.NoError(t, err)
	assert.Equal(t, "Geometry::Point\t1.0.0\tpoint\n", out)
}

func TestPromote_BadStage(t *testing.T) {
	a := newTestApp()
	_, err := run(t, a, pointClass, "store")
	require.NoError(t, err)
	_, err = run(t, a, "", "promote", "Geometry::Point", "1.0.0", "qa")
	assert.Error(t, err)
}

func TestSplitConstructArgs(t *testing.T) {
	id, version, pairs := splitConstructArgs([]string{"a", "x=1"})
	assert.Equal(t, "a", id)
	assert.Empty(t, version)
	assert.Equal(t, []string{"x=1"}, pairs)

	_, version, pairs = splitConstructArgs([]string{"a", "2.0.0", "x=1", "y=2"})
	assert.Equal(t, "2.0.0", version)
	assert.Equal(t, []string{"x=1", "y=2"}, pairs)
}

func TestSettingsOpen(t *testing.T) {
	s := settings{Backend: "file", Registry: t.TempDir()}
	reg, closer, err := s.open(context.Background())
	require.NoError(t, err)
	require.NoError(t, closer())
	assert.IsType(t, &registry.FileRegistry{}, reg)

	s = settings{Backend: "MEMORY"}
	reg, _, err = s.open(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &registry.MemoryRegistry{}, reg)

	s = settings{Backend: "postgres"}
	_, _, err = s.open(context.Background())
	assert.ErrorContains(t, err, "--dsn")

	s = settings{Backend: "s3"}
	_, _, err = s.open(context.Background())
	assert.ErrorContains(t, err, "--s3-bucket")

	s = settings{Backend: "etcd"}
	_, _, err = s.open(context.Background())
	assert.ErrorContains(t, err, "unknown backend")
}

func TestEnvOr(t *testing.T) {
	t.Setenv("BASIS_TEST_KEY", "value")
	assert.Equal(t, "value", envOr("BASIS_TEST_KEY", "def"))
	assert.Equal(t, "def", envOr("BASIS_TEST_MISSING", "def"))
}

func TestExecute_ClosesRegistryWhenCommandFails(t *testing.T) {
	a := newTestApp()
	closed := 0
	a.closeReg = func() error {
		closed++
		return nil
	}
	_, err := run(t, a, "", "get", "Missing::Class")
	require.ErrorIs(t, err, core.ErrClassNotFound)
	assert.Equal(t, 1, closed)
	assert.Nil(t, a.closeReg)
}

func TestConstruct_NonFinitePairIsRejectedByType(t *testing.T) {
	a := newTestApp()
	_, err := run(t, a, pointClass, "store")
	require.NoError(t, err)

	_, err = run(t, a, "", "construct", "Geometry::Point", "1.0.0", "x=NaN")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidValue)
	assert.Equal(t, "geometry.point error - expected number for x", err.Error())
}
