// Package core provides the construction primitives for the basis framework:
// configuration mappings, field schemas, class definitions and failures.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for construction and registry operations.
var (
	ErrClassNotFound    = errors.New("class not found")
	ErrInvalidVersion   = errors.New("invalid version format")
	ErrValidationFailed = errors.New("validation failed")
	ErrMissingValue     = errors.New("missing required value")
	ErrInvalidValue     = errors.New("invalid value")
	ErrMalformedArgs    = errors.New("malformed construction arguments")
	ErrNoResolver       = errors.New("no resolver configured on class")
)

// Failure is the structured error raised while constructing an instance.
// It is never mutated after creation.
type Failure struct {
	Component string
	Message   string
	Field     string
	Value     interface{}
	Err       error
}

func (f *Failure) Error() string {
	if f.Component == "" {
		return f.Message
	}
	return f.Component + " error - " + f.Message
}

// Unwrap returns the failure kind (one of the sentinel errors, or a cause).
func (f *Failure) Unwrap() error {
	return f.Err
}

// Fail builds a failure for component from message fragments. Fragments are
// concatenated in order with no separator.
func Fail(component string, fragments ...interface{}) *Failure {
	return &Failure{Component: component, Message: Concat(fragments...)}
}

// FailField builds a failure attributed to a single configuration field.
func FailField(component, field string, value interface{}, kind error, fragments ...interface{}) *Failure {
	return &Failure{
		Component: component,
		Message:   Concat(fragments...),
		Field:     field,
		Value:     value,
		Err:       kind,
	}
}

// Concat formats every fragment on its own and joins the results.
// Unlike fmt.Sprint it never inserts spaces between operands.
func Concat(fragments ...interface{}) string {
	var b strings.Builder
	for _, f := range fragments {
		switch v := f.(type) {
		case nil:
		case string:
			b.WriteString(v)
		case error:
			b.WriteString(v.Error())
		default:
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

// AsFailure reports whether err is (or wraps) a *Failure and returns it.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
