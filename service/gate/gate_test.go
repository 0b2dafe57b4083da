package gate_test

import (
	"context"
	"testing"

	"flowpool/config"
	"flowpool/core"
	"flowpool/service/gate"
	"flowpool/service/servicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGate() (core.IGate, *servicetest.System) {
	system := &servicetest.System{}
	g := gate.New(servicetest.Transactor{}, &servicetest.GrantStore{}, &config.Genesis{
		Admins: []string{"root"},
	}, system)
	return g, system
}

func TestGenesisGrants(t *testing.T) {
	ctx := context.Background()
	g, _ := newGate()

	assert.NoError(t, g.Authorize(ctx, "root", core.CapabilityAdmin))
	assert.Equal(t, core.ErrUnauthorized, g.Authorize(ctx, "root", core.CapabilityKeeper))
	assert.Equal(t, core.ErrUnauthorized, g.Authorize(ctx, "other", core.CapabilityAdmin))
}

func TestGrantRevoke(t *testing.T) {
	ctx := context.Background()
	g, _ := newGate()

	require.NoError(t, g.Grant(ctx, "root", "bot", core.CapabilityKeeper))
	assert.NoError(t, g.Authorize(ctx, "bot", core.CapabilityKeeper))
	assert.Equal(t, core.ErrUnauthorized, g.Authorize(ctx, "bot", core.CapabilityAdmin))

	require.NoError(t, g.Revoke(ctx, "root", "bot", core.CapabilityKeeper))
	assert.Equal(t, core.ErrUnauthorized, g.Authorize(ctx, "bot", core.CapabilityKeeper))
}

func TestGrantRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	g, _ := newGate()

	assert.Equal(t, core.ErrUnauthorized, g.Grant(ctx, "bot", "bot", core.CapabilityAdmin))
	assert.Equal(t, core.ErrInvalidPrincipal, g.Authorize(ctx, "", core.CapabilityAdmin))
	assert.Equal(t, core.ErrInvalidCapability, g.Authorize(ctx, "root", core.Capability("root")))
}

func TestPauseBlocksGrants(t *testing.T) {
	ctx := context.Background()
	g, system := newGate()

	require.NoError(t, g.Grant(ctx, "root", "bot", core.CapabilityKeeper))

	system.IsPaused = true

	assert.Equal(t, core.ErrSystemPaused, g.Grant(ctx, "root", "bot", core.CapabilityGuardian))
	assert.Equal(t, core.ErrSystemPaused, g.Revoke(ctx, "root", "bot", core.CapabilityKeeper))

	// the paused grant table is untouched; authorization still answers
	assert.NoError(t, g.Authorize(ctx, "bot", core.CapabilityKeeper))
	assert.Equal(t, core.ErrUnauthorized, g.Authorize(ctx, "bot", core.CapabilityGuardian))

	system.IsPaused = false

	assert.NoError(t, g.Revoke(ctx, "root", "bot", core.CapabilityKeeper))
}
