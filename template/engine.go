// Package template provides the resolver that checks configurations against
// class schemas and renders field messages.
package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/klejdi94/basis/core"
)

// Engine resolves configurations and renders message templates using Go
// text/template with custom functions.
type Engine struct {
	leftDelim  string
	rightDelim string
	funcMap    template.FuncMap
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithDelims sets custom delimiters (default "{{" and "}}").
func WithDelims(left, right string) EngineOption {
	return func(e *Engine) {
		e.leftDelim = left
		e.rightDelim = right
	}
}

// WithFuncMap adds custom template functions.
func WithFuncMap(fm template.FuncMap) EngineOption {
	return func(e *Engine) {
		for k, v := range fm {
			e.funcMap[k] = v
		}
	}
}

// NewEngine creates a new engine with default or custom options.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		leftDelim:  "{{",
		rightDelim: "}}",
		funcMap:    defaultFuncMap(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"join":    strings.Join,
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"trim":    strings.TrimSpace,
		"default": defaultFunc,
		"json":    jsonFunc,
	}
}

func defaultFunc(def, val interface{}) interface{} {
	if val == nil || val == "" {
		return def
	}
	return val
}

func jsonFunc(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Resolve implements core.Resolver. It validates cfg against the class, then
// returns a copy with defaults applied. Failures keep their component tag and
// also match core.ErrValidationFailed.
func (e *Engine) Resolve(c *core.Class, cfg core.Config) (core.Config, error) {
	if err := c.ValidateConfig(cfg); err != nil {
		fl, ok := core.AsFailure(err)
		if !ok {
			return nil, fmt.Errorf("%w: %w", core.ErrValidationFailed, err)
		}
		out := *fl
		out.Err = fmt.Errorf("%w: %w", core.ErrValidationFailed, fl.Err)
		if f, ok := c.FieldMap()[fl.Field]; ok && f.Message != "" && errors.Is(fl.Err, core.ErrMissingValue) {
			msg, rerr := e.Format(f.Message, map[string]interface{}{
				"field": f.Name,
				"class": c.ComponentName(),
				"value": fl.Value,
			})
			if rerr != nil {
				return nil, fmt.Errorf("message for %q: %w", f.Name, rerr)
			}
			out.Message = msg
		}
		return nil, &out
	}
	return c.ApplyDefaults(cfg), nil
}

// Format renders a single template string with data.
func (e *Engine) Format(tpl string, data map[string]interface{}) (string, error) {
	if tpl == "" {
		return "", nil
	}
	t, err := template.New("").Delims(e.leftDelim, e.rightDelim).Funcs(e.funcMap).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
