package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_Validate_String(t *testing.T) {
	f := Field{Name: "x", Type: FieldTypeString, Required: true}
	assert.Error(t, f.Validate(nil))
	assert.NoError(t, f.Validate("hello"))
	assert.ErrorIs(t, f.Validate(42), ErrInvalidValue)
}

func TestField_Validate_Missing(t *testing.T) {
	f := String(Required())
	f.Name = "y"
	err := f.Validate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingValue)
	assert.Contains(t, err.Error(), "No value specified for y")
}

func TestField_Validate_OptionalWithDefault(t *testing.T) {
	f := Field{Name: "x", Type: FieldTypeString, Default: "default"}
	assert.NoError(t, f.Validate(nil))
	assert.NoError(t, f.Validate("custom"))
}

func TestInt_Validate(t *testing.T) {
	f := Int()
	f.Name = "n"
	assert.NoError(t, f.Validate(1))
	assert.NoError(t, f.Validate(int64(2)))
	assert.NoError(t, f.Validate(3.0))
	assert.Error(t, f.Validate(3.5))
	assert.Error(t, f.Validate("1"))
}

func TestNumber_Validate(t *testing.T) {
	f := Number()
	f.Name = "x"
	assert.NoError(t, f.Validate(10))
	assert.NoError(t, f.Validate(float32(1.5)))
	assert.Error(t, f.Validate("10"))
	assert.Error(t, f.Validate(true))
}

func TestField_Validate_CustomFunc(t *testing.T) {
	f := String(WithValidation(func(value interface{}) error {
		if s, ok := value.(string); ok && len(s) < 3 {
			return errors.New("too short")
		}
		return nil
	}))
	f.Name = "x"
	err := f.Validate("ab")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "invalid value for x: too short")
	assert.NoError(t, f.Validate("abc"))
}

func TestField_Options(t *testing.T) {
	f := Bool(Default(true), WithDescription("flag"), WithMessage("need {{.field}}"))
	assert.Equal(t, FieldTypeBool, f.Type)
	assert.Equal(t, true, f.Default)
	assert.Equal(t, "flag", f.Description)
	assert.Equal(t, "need {{.field}}", f.Message)
	assert.Equal(t, FieldTypeAny, Any().Type)
	assert.Equal(t, FieldTypeFloat, Float().Type)
}

func TestInt_Validate_RejectsInfinity(t *testing.T) {
	f := Int()
	f.Name = "n"
	assert.ErrorIs(t, f.Validate(math.Inf(1)), ErrInvalidValue)
	assert.ErrorIs(t, f.Validate(math.Inf(-1)), ErrInvalidValue)
	assert.ErrorIs(t, f.Validate(math.NaN()), ErrInvalidValue)
}

func TestField_Validate_RequiredEmptyString(t *testing.T) {
	f := String(Required())
	f.Name = "owner"
	err := f.Validate("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingValue)
	assert.Equal(t, "No value specified for owner", err.Error())

	optional := String()
	optional.Name = "note"
	assert.NoError(t, optional.Validate(""))
}
