package basis

import (
	"testing"

	"github.com/klejdi94/basis/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Base
	Owner   string
	Balance float64
}

var accountClass = New("Bank::Account").
	WithField("owner", String(Required())).
	WithField("balance", Number(Default(0))).
	Build(nil)

func (a *account) Init(cfg Config) error {
	resolved, err := accountClass.Resolve(cfg)
	if err != nil {
		return err
	}
	a.Owner, _ = resolved.String("owner")
	a.Balance, _ = resolved.Float("balance")
	return nil
}

func TestBuilder_Build(t *testing.T) {
	c := New("svc").
		WithVersion("2.0.0").
		WithName("Service").
		WithDescription("a service").
		WithField("port", Int(Required())).
		WithMetadata(map[string]interface{}{"team": "core"}).
		Build(nil)
	assert.Equal(t, "svc", c.ID)
	assert.Equal(t, "2.0.0", c.Version)
	assert.Equal(t, "Service", c.Name)
	require.Len(t, c.Fields, 1)
	assert.Equal(t, "port", c.Fields[0].Name)
	assert.Equal(t, "core", c.Metadata["team"])
	assert.False(t, c.CreatedAt.IsZero())
}

func TestConstruct_SchemaDriven(t *testing.T) {
	a, err := Construct[account]("owner", "ann")
	require.NoError(t, err)
	assert.Equal(t, "ann", a.Owner)
	assert.Equal(t, 0.0, a.Balance)
}

func TestConstruct_SchemaDrivenMissing(t *testing.T) {
	a, err := Construct[account](Config{"balance": 5})
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Equal(t, "bank.account error - No value specified for owner", err.Error())
}

func TestConstruct_SchemaDrivenEmptyRequired(t *testing.T) {
	a, err := Construct[account]("owner", "")
	require.Error(t, err)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, core.ErrMissingValue)
	assert.Equal(t, "bank.account error - No value specified for owner", err.Error())
}
