package core

import (
	"time"
)

// Class is a versioned schema describing the configuration an initializer
// expects. The resolver is set by the builder.
type Class struct {
	ID          string                 `json:"id"`
	Version     string                 `json:"version"`
	Name        string                 `json:"name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Fields      []Field                `json:"fields,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	resolver    Resolver
}

// Resolver is implemented by the template package to resolve configurations.
type Resolver interface {
	Resolve(c *Class, cfg Config) (Config, error)
}

// SetResolver sets the resolver used by Resolve. Used by the builder.
func (c *Class) SetResolver(r Resolver) {
	c.resolver = r
}

// ComponentName returns the failure tag for the class, derived from its ID.
func (c *Class) ComponentName() string {
	return NormalizeName(c.ID)
}

// Resolve validates cfg and returns it with defaults applied, using the
// configured resolver.
func (c *Class) Resolve(cfg Config) (Config, error) {
	if c.resolver == nil {
		return nil, ErrNoResolver
	}
	return c.resolver.Resolve(c, cfg)
}

// ValidateConfig checks every field in declaration order and returns the
// first failure, tagged with the class component name.
func (c *Class) ValidateConfig(cfg Config) error {
	for i := range c.Fields {
		f := &c.Fields[i]
		val, ok := cfg.Lookup(f.Name)
		if !ok {
			val = f.Default
		}
		if err := f.Validate(val); err != nil {
			if fl, ok := AsFailure(err); ok {
				tagged := *fl
				tagged.Component = c.ComponentName()
				return &tagged
			}
			return err
		}
	}
	return nil
}

// ApplyDefaults returns a copy of cfg with field defaults filled in for
// absent or nil keys. Keys not declared by the class are kept.
func (c *Class) ApplyDefaults(cfg Config) Config {
	out := cfg.Copy()
	for _, f := range c.Fields {
		if _, ok := out.Lookup(f.Name); !ok && f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

// FieldMap returns a map of field name to Field for lookup.
func (c *Class) FieldMap() map[string]Field {
	m := make(map[string]Field, len(c.Fields))
	for _, f := range c.Fields {
		m[f.Name] = f
	}
	return m
}

// Copy returns a deep copy of the class with no resolver set.
func (c *Class) Copy() *Class {
	q := *c
	q.Fields = append([]Field(nil), c.Fields...)
	q.Metadata = make(map[string]interface{}, len(c.Metadata))
	for k, v := range c.Metadata {
		q.Metadata[k] = v
	}
	q.resolver = nil
	return &q
}
