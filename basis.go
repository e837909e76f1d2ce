// Package basis provides configuration-driven object construction for Go:
// a constructor facade that accepts a mapping or key/value pairs, per-type
// initializer hooks, versioned class schemas, and structured failures.
//
// Quick start:
//
//	type Point struct {
//		basis.Base
//		X, Y float64
//	}
//
//	func (p *Point) Init(cfg basis.Config) error {
//		x, ok := cfg.Float("x")
//		if !ok {
//			return p.Fail("No value specified for x")
//		}
//		...
//	}
//
//	p, err := basis.Construct[Point]("x", 10, "y", 20)
package basis

import (
	"time"

	"github.com/klejdi94/basis/core"
	"github.com/klejdi94/basis/template"
)

var defaultEngine = template.NewEngine()

// DefaultEngine returns the shared default engine (used by Build when nil is passed).
func DefaultEngine() *template.Engine {
	return defaultEngine
}

// Construct allocates a T and runs its initializer with the folded arguments.
// See core.New.
func Construct[T any, PT core.InitializerPtr[T]](args ...interface{}) (*T, error) {
	return core.New[T, PT](args...)
}

// Builder constructs a Class via a fluent API.
type Builder struct {
	id          string
	version     string
	name        string
	description string
	fields      []core.Field
	metadata    map[string]interface{}
}

// New starts a new class builder with the given id (e.g. "Geometry::Point").
func New(id string) *Builder {
	return &Builder{
		id:       id,
		version:  "1.0.0",
		metadata: make(map[string]interface{}),
	}
}

// WithVersion sets the class version (semantic versioning).
func (b *Builder) WithVersion(v string) *Builder {
	b.version = v
	return b
}

// WithName sets the human-readable name.
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// WithDescription sets the description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.description = desc
	return b
}

// WithField adds a field definition. Use core.String(), core.Number(), etc. with options.
func (b *Builder) WithField(name string, f core.Field) *Builder {
	f.Name = name
	b.fields = append(b.fields, f)
	return b
}

// WithMetadata sets or merges metadata key-value pairs.
func (b *Builder) WithMetadata(m map[string]interface{}) *Builder {
	for k, v := range m {
		b.metadata[k] = v
	}
	return b
}

// Build produces the Class and attaches the given engine as its resolver.
// If eng is nil, the default engine is used.
func (b *Builder) Build(eng *template.Engine) *core.Class {
	if eng == nil {
		eng = defaultEngine
	}
	now := time.Now()
	c := &core.Class{
		ID:          b.id,
		Version:     b.version,
		Name:        b.name,
		Description: b.description,
		Fields:      append([]core.Field(nil), b.fields...),
		Metadata:    make(map[string]interface{}, len(b.metadata)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for k, v := range b.metadata {
		c.Metadata[k] = v
	}
	c.SetResolver(eng)
	return c
}

// Re-export core types for convenience.
type (
	// Config is the configuration mapping passed to initializers.
	Config = core.Config
	// Base gives an embedding type the Fail error-reporting facility.
	Base = core.Base
	// Failure is the structured construction error.
	Failure = core.Failure
	// Field is a class field definition.
	Field = core.Field
	// Class is a versioned configuration schema.
	Class = core.Class
	// Initializer is the per-type construction hook.
	Initializer = core.Initializer
)

// Field constructors and helpers (re-export from core).
var (
	String          = core.String
	Int             = core.Int
	Float           = core.Float
	Number          = core.Number
	Bool            = core.Bool
	Any             = core.Any
	Required        = core.Required
	Default         = core.Default
	WithValidation  = core.WithValidation
	WithDescription = core.WithDescription
	WithMessage     = core.WithMessage
	Args            = core.Args
	Fail            = core.Fail
)
