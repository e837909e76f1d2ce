package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Config is the configuration mapping handed to an initializer.
// A new Config is built for every construction call.
type Config map[string]interface{}

// Args folds construction arguments into a Config. It accepts no arguments,
// a single Config or map[string]interface{}, or alternating key/value pairs
// with string keys. Maps are copied so the caller's value is never mutated.
// Later duplicate keys win.
func Args(args ...interface{}) (Config, error) {
	if len(args) == 1 {
		switch m := args[0].(type) {
		case Config:
			return m.Copy(), nil
		case map[string]interface{}:
			return Config(m).Copy(), nil
		case map[string]string:
			cfg := make(Config, len(m))
			for k, v := range m {
				cfg[k] = v
			}
			return cfg, nil
		case nil:
			return Config{}, nil
		}
	}
	if len(args)%2 != 0 {
		return nil, &Failure{
			Message: Concat("odd number of arguments (", len(args), ")"),
			Err:     ErrMalformedArgs,
		}
	}
	cfg := make(Config, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, &Failure{
				Message: fmt.Sprintf("argument %d: key must be a string, got %T", i, args[i]),
				Value:   args[i],
				Err:     ErrMalformedArgs,
			}
		}
		cfg[key] = args[i+1]
	}
	return cfg, nil
}

// Copy returns a shallow copy of the mapping.
func (c Config) Copy() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Keys returns the keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value for key. A nil value counts as undefined.
func (c Config) Lookup(key string) (interface{}, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Has reports whether key is present with a non-nil value.
func (c Config) Has(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// String returns the value for key as a string.
func (c Config) String(key string) (string, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return "", false
	}
	s, err := CoerceToString(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// Float returns the value for key as a float64 when it holds any Go number
// or a numeric string.
func (c Config) Float(key string) (float64, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Int returns the value for key as an int when it holds an integral number
// that fits in an int. Integer kinds are converted exactly.
func (c Config) Int(key string) (int, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return 0, false
	}
	return ToInt(v)
}

// ToInt converts an integral Go number, or a string holding one, to int.
// Values outside the int range and non-integral floats are rejected.
func ToInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		if uint64(n) > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint:
		if uint64(n) > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case string:
		if i, err := strconv.ParseInt(n, 10, 0); err == nil {
			return int(i), true
		}
	}
	f, ok := ToFloat(v)
	if !ok || !isIntegral(f) || f < float64(math.MinInt) || f >= float64(math.MaxInt) {
		return 0, false
	}
	return int(f), true
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// Bool returns the value for key as a bool. Strings accepted by
// strconv.ParseBool are converted.
func (c Config) Bool(key string) (bool, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}

// ToFloat converts any Go number, or a string holding one, to float64.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
