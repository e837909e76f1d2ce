package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointClass() *Class {
	return &Class{
		ID: "Geometry::Point",
		Fields: []Field{
			{Name: "x", Type: FieldTypeNumber, Required: true},
			{Name: "y", Type: FieldTypeNumber, Required: true},
			{Name: "label", Type: FieldTypeString, Default: "origin"},
		},
	}
}

func TestClass_ValidateConfig(t *testing.T) {
	c := pointClass()
	assert.NoError(t, c.ValidateConfig(Config{"x": 10, "y": 20}))
	err := c.ValidateConfig(Config{"x": 10})
	require.Error(t, err)
	fl, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "geometry.point", fl.Component)
	assert.Equal(t, "y", fl.Field)
	assert.Equal(t, "geometry.point error - No value specified for y", err.Error())
}

func TestClass_ValidateConfig_DeclarationOrder(t *testing.T) {
	err := pointClass().ValidateConfig(Config{})
	fl, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "x", fl.Field)
}

func TestClass_ApplyDefaults(t *testing.T) {
	in := Config{"x": 1, "y": 2, "extra": "kept"}
	out := pointClass().ApplyDefaults(in)
	assert.Equal(t, "origin", out["label"])
	assert.Equal(t, "kept", out["extra"])
	_, touched := in["label"]
	assert.False(t, touched)
}

func TestClass_Resolve_NoResolver(t *testing.T) {
	_, err := pointClass().Resolve(Config{})
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestClass_Copy(t *testing.T) {
	c := pointClass()
	c.Metadata = map[string]interface{}{"k": "v"}
	q := c.Copy()
	require.NotSame(t, c, q)
	assert.Equal(t, c.ID, q.ID)
	q.Fields[0].Name = "changed"
	q.Metadata["k"] = "other"
	assert.Equal(t, "x", c.Fields[0].Name)
	assert.Equal(t, "v", c.Metadata["k"])
	assert.Nil(t, q.resolver)
}

func TestClass_FieldMap(t *testing.T) {
	m := pointClass().FieldMap()
	assert.Len(t, m, 3)
	assert.True(t, m["x"].Required)
}
