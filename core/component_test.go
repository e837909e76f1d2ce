package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type widget struct{}

type namedWidget struct{}

func (namedWidget) ComponentName() string { return "My::Widget" }

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "geometry.point", NormalizeName("Geometry::Point"))
	assert.Equal(t, "a.b.c", NormalizeName("a/B\\c"))
	assert.Equal(t, "x", NormalizeName("::X::"))
	assert.Equal(t, "", NormalizeName(""))
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "core.widget", ComponentName(&widget{}))
	assert.Equal(t, "core.widget", ComponentName(widget{}))
	assert.Equal(t, "my.widget", ComponentName(namedWidget{}))
	assert.Equal(t, "geometry.point", ComponentName("Geometry::Point"))
	assert.Equal(t, "", ComponentName(nil))
}
