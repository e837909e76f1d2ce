package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Base
	X, Y float64
}

func (p *point) Init(cfg Config) error {
	x, ok := cfg.Float("x")
	if !ok {
		return p.Fail("No value specified for ", "x")
	}
	y, ok := cfg.Float("y")
	if !ok {
		return p.Fail("No value specified for ", "y")
	}
	p.X, p.Y = x, y
	return nil
}

type sentinelInit struct{}

var errSentinel = &Failure{Message: "fixed"}

func (s *sentinelInit) Init(Config) error { return errSentinel }

func TestNew_Mapping(t *testing.T) {
	p, err := New[point](Config{"x": 10, "y": 20})
	require.NoError(t, err)
	assert.Equal(t, 10.0, p.X)
	assert.Equal(t, 20.0, p.Y)
}

func TestNew_PairsMatchMapping(t *testing.T) {
	a, err := New[point]("x", 10, "y", 20)
	require.NoError(t, err)
	b, err := New[point](map[string]interface{}{"x": 10, "y": 20})
	require.NoError(t, err)
	assert.Equal(t, b.X, a.X)
	assert.Equal(t, b.Y, a.Y)
}

func TestNew_MissingRequired(t *testing.T) {
	p, err := New[point](Config{"x": 10})
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "No value specified for y")
	fl, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "core.point", fl.Component)
}

func TestNew_NilCountsAsMissing(t *testing.T) {
	_, err := New[point]("x", 1, "y", nil)
	assert.ErrorContains(t, err, "No value specified for y")
}

func TestNew_OddArguments(t *testing.T) {
	p, err := New[point]("x", 10, "y")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrMalformedArgs)
	fl, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "core.point", fl.Component)
}

func TestNew_PropagatesUnchanged(t *testing.T) {
	_, err := New[sentinelInit]()
	assert.Same(t, errSentinel, err)
}

func TestBase_BoundName(t *testing.T) {
	p, err := New[point]("x", 1, "y", 2)
	require.NoError(t, err)
	assert.Equal(t, "core.point", p.ComponentName())
	assert.Equal(t, "core.point error - later", p.Fail("later").Error())
}
