package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlacement_Region(t *testing.T) {
	c := Default()

	p, err := c.ResolvePlacement("us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", p.Region)
	assert.Empty(t, p.Zone, "region-scoped location should not pin a zone")
}

func TestResolvePlacement_Zone(t *testing.T) {
	c := Default()

	p, err := c.ResolvePlacement("us-east-1a")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", p.Region, "region must be derived from the zone's parent")
	assert.Equal(t, "us-east-1a", p.Zone)
}

func TestResolvePlacement_Unknown(t *testing.T) {
	c := Default()

	_, err := c.ResolvePlacement("mars-central-1")
	assert.Error(t, err)
}

func TestResolvePlacement_ZoneWithoutParent(t *testing.T) {
	c := New([]Location{{ID: "orphan-zone", Scope: ScopeZone}}, nil)

	_, err := c.ResolvePlacement("orphan-zone")
	assert.Error(t, err)
}

func TestResolveInstanceType(t *testing.T) {
	c := Default()

	it, err := c.ResolveInstanceType("small")
	require.NoError(t, err)
	assert.Equal(t, "m1.small", it)

	_, err = c.ResolveInstanceType("galactic")
	assert.Error(t, err)
}

func TestResolveInstanceType_Unresolvable(t *testing.T) {
	c := New(nil, []Size{{ID: "stub"}})

	_, err := c.ResolveInstanceType("stub")
	assert.Error(t, err)
}
