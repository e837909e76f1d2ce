package core

import (
	"fmt"
)

// FieldType represents the expected type of a configuration value.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeNumber FieldType = "number"
	FieldTypeBool   FieldType = "bool"
	FieldTypeAny    FieldType = "any"
)

// ValidationFunc validates a field value. Returns nil if valid.
type ValidationFunc func(value interface{}) error

// Field defines one expected key of a configuration mapping.
// Message, when set, replaces the missing-value text and may be a template
// ({{.field}}, {{.class}}) rendered by the template engine.
type Field struct {
	Name        string         `json:"name"`
	Type        FieldType      `json:"type,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Default     interface{}    `json:"default,omitempty"`
	Validation  ValidationFunc `json:"-"`
	Description string         `json:"description,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// MissingMessage is the default text for an absent required field.
func MissingMessage(name string) string {
	return "No value specified for " + name
}

// Validate checks value against the field's type and custom validation.
// A nil value is treated as absent. A required field must also be non-empty,
// so an empty string counts as missing for it.
func (f *Field) Validate(value interface{}) error {
	if s, ok := value.(string); ok && s == "" && f.Required {
		value = nil
	}
	if value == nil {
		if f.Required {
			return &Failure{Field: f.Name, Message: MissingMessage(f.Name), Err: ErrMissingValue}
		}
		return nil
	}
	if msg := f.checkType(value); msg != "" {
		return &Failure{Field: f.Name, Value: value, Message: msg, Err: ErrInvalidValue}
	}
	if f.Validation != nil {
		if err := f.Validation(value); err != nil {
			if fl, ok := AsFailure(err); ok {
				return fl
			}
			return &Failure{
				Field:   f.Name,
				Value:   value,
				Message: Concat("invalid value for ", f.Name, ": ", err),
				Err:     fmt.Errorf("%w: %w", ErrInvalidValue, err),
			}
		}
	}
	return nil
}

func (f *Field) checkType(value interface{}) string {
	switch f.Type {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			return "expected string for " + f.Name
		}
	case FieldTypeInt:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			// ok
		case float32, float64:
			n, _ := ToFloat(v)
			if !isIntegral(n) {
				return "expected integer for " + f.Name
			}
		default:
			return "expected integer for " + f.Name
		}
	case FieldTypeFloat:
		switch value.(type) {
		case float32, float64:
			// ok
		default:
			return "expected float for " + f.Name
		}
	case FieldTypeNumber:
		switch value.(type) {
		case string:
			return "expected number for " + f.Name
		}
		if _, ok := ToFloat(value); !ok {
			return "expected number for " + f.Name
		}
	case FieldTypeBool:
		if _, ok := value.(bool); !ok {
			return "expected bool for " + f.Name
		}
	case FieldTypeAny, "":
		// no type check
	}
	return ""
}

// FieldOption configures a Field (functional option).
type FieldOption func(*Field)

// Required marks the field as required.
func Required() FieldOption {
	return func(f *Field) {
		f.Required = true
	}
}

// Default sets the value used when the key is absent.
func Default(val interface{}) FieldOption {
	return func(f *Field) {
		f.Default = val
	}
}

// WithValidation sets a custom validation function.
func WithValidation(fn ValidationFunc) FieldOption {
	return func(f *Field) {
		f.Validation = fn
	}
}

// WithDescription sets the field description.
func WithDescription(desc string) FieldOption {
	return func(f *Field) {
		f.Description = desc
	}
}

// WithMessage overrides the missing-value message (may be a template).
func WithMessage(msg string) FieldOption {
	return func(f *Field) {
		f.Message = msg
	}
}

func newField(t FieldType, opts []FieldOption) Field {
	f := Field{Type: t}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// String returns a Field configured as string type.
func String(opts ...FieldOption) Field { return newField(FieldTypeString, opts) }

// Int returns a Field configured as int type.
func Int(opts ...FieldOption) Field { return newField(FieldTypeInt, opts) }

// Float returns a Field configured as float type.
func Float(opts ...FieldOption) Field { return newField(FieldTypeFloat, opts) }

// Number returns a Field that accepts any Go number.
func Number(opts ...FieldOption) Field { return newField(FieldTypeNumber, opts) }

// Bool returns a Field configured as bool type.
func Bool(opts ...FieldOption) Field { return newField(FieldTypeBool, opts) }

// Any returns a Field that accepts any type.
func Any(opts ...FieldOption) Field { return newField(FieldTypeAny, opts) }

// CoerceToString attempts to coerce value to string.
func CoerceToString(value interface{}) (string, error) {
	if value == nil {
		return "", nil
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}
