package configfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klejdi94/basis/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	cfg, err := Load(writeFile(t, "p.json", `{"x": 10, "y": 2.5, "label": "a", "tags": [1, "b"]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(10), cfg["x"])
	assert.Equal(t, 2.5, cfg["y"])
	assert.Equal(t, "a", cfg["label"])
	assert.Equal(t, []interface{}{int64(1), "b"}, cfg["tags"])
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "p.yaml", "x: 10\ny: 20\nnested:\n  enabled: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg["x"])
	assert.Equal(t, 20, cfg["y"])
	assert.Equal(t, map[string]interface{}{"enabled": true}, cfg["nested"])
}

func TestLoadYAML_Empty(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestLoad_HCL(t *testing.T) {
	cfg, err := Load(writeFile(t, "p.hcl", `
x     = 10
y     = 2.5
name  = "origin"
flags = [true, false]
meta  = { owner = "geo" }
`))
	require.NoError(t, err)
	assert.Equal(t, int64(10), cfg["x"])
	assert.Equal(t, 2.5, cfg["y"])
	assert.Equal(t, "origin", cfg["name"])
	assert.Equal(t, []interface{}{true, false}, cfg["flags"])
	assert.Equal(t, map[string]interface{}{"owner": "geo"}, cfg["meta"])
}

func TestLoadHCL_RejectsBlocks(t *testing.T) {
	_, err := LoadHCL("p.hcl", []byte("point {\n  x = 1\n}\n"))
	assert.Error(t, err)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "p.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestParsePairs(t *testing.T) {
	cfg, err := ParsePairs([]string{"x=10", "y=2.5", "on=true", "name=a=b"})
	require.NoError(t, err)
	assert.Equal(t, core.Config{"x": int64(10), "y": 2.5, "on": true, "name": "a=b"}, cfg)

	_, err = ParsePairs([]string{"novalue"})
	assert.ErrorIs(t, err, core.ErrMalformedArgs)
}

func TestParsePairs_NonFiniteStayStrings(t *testing.T) {
	cfg, err := ParsePairs([]string{"a=NaN", "b=Inf", "c=-inf", "d=1e400"})
	require.NoError(t, err)
	assert.Equal(t, core.Config{"a": "NaN", "b": "Inf", "c": "-inf", "d": "1e400"}, cfg)
}
