// Package configfile loads configuration mappings from JSON, YAML and HCL
// documents, and from key=value command-line pairs.
package configfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klejdi94/basis/core"
	"gopkg.in/yaml.v3"
)

// Load reads path and decodes it according to its extension
// (.json, .yaml, .yml, .hcl).
func Load(path string) (core.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configfile: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return LoadJSON(bytes.NewReader(data))
	case ".yaml", ".yml":
		return LoadYAML(bytes.NewReader(data))
	case ".hcl":
		return LoadHCL(filepath.Base(path), data)
	default:
		return nil, fmt.Errorf("configfile: unsupported extension %q", ext)
	}
}

// LoadJSON decodes a JSON object. Integral numbers become int64, others float64.
func LoadJSON(r io.Reader) (core.Config, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("configfile json: %w", err)
	}
	return core.Config(normalizeJSON(raw).(map[string]interface{})), nil
}

func normalizeJSON(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case map[string]interface{}:
		for k, val := range x {
			x[k] = normalizeJSON(val)
		}
		return x
	case []interface{}:
		for i, val := range x {
			x[i] = normalizeJSON(val)
		}
		return x
	}
	return v
}

// LoadYAML decodes a YAML mapping document.
func LoadYAML(r io.Reader) (core.Config, error) {
	var raw map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return core.Config{}, nil
		}
		return nil, fmt.Errorf("configfile yaml: %w", err)
	}
	if raw == nil {
		return core.Config{}, nil
	}
	return core.Config(raw), nil
}

// ParsePairs turns "key=value" arguments into a Config. Values that parse as
// integers, finite floats or booleans are converted; everything else, including
// "NaN" and "Inf", stays a string.
func ParsePairs(pairs []string) (core.Config, error) {
	cfg := make(core.Config, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("configfile: %q: want key=value: %w", p, core.ErrMalformedArgs)
		}
		cfg[k] = inferValue(v)
	}
	return cfg, nil
}

func inferValue(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
