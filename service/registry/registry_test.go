package registry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"flowpool/config"
	"flowpool/core"
	"flowpool/service/gate"
	"flowpool/service/registry"
	"flowpool/service/servicetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminPrincipal  = "admin"
	keeperPrincipal = "keeper"
)

type testEnv struct {
	assets    *servicetest.AssetStore
	protocols *servicetest.ProtocolStore
	system    *servicetest.System
	registry  core.IRegistryService
}

func newTestEnv(t *testing.T, maxProtocols int64) *testEnv {
	env := &testEnv{
		assets:    &servicetest.AssetStore{},
		protocols: &servicetest.ProtocolStore{},
		system:    &servicetest.System{},
	}

	g := gate.New(servicetest.Transactor{}, &servicetest.GrantStore{}, &config.Genesis{
		Admins:  []string{adminPrincipal},
		Keepers: []string{keeperPrincipal},
	}, env.system)

	env.registry = registry.New(servicetest.Transactor{}, &sync.Mutex{}, maxProtocols,
		g, env.system, env.assets, env.protocols)

	return env
}

func TestAddAsset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 64)

	asset, err := env.registry.AddAsset(ctx, adminPrincipal, "btc", "BTC", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, asset.IsActive)
	assert.True(t, asset.LastRebalanceAt.Equal(time.Unix(0, 0)))

	_, err = env.registry.AddAsset(ctx, adminPrincipal, "btc", "BTC", decimal.NewFromInt(100))
	assert.Equal(t, core.ErrAssetExists, err)

	_, err = env.registry.AddAsset(ctx, keeperPrincipal, "eth", "ETH", decimal.Zero)
	assert.Equal(t, core.ErrUnauthorized, err)

	_, err = env.registry.AddAsset(ctx, adminPrincipal, "eth", "ETH", decimal.NewFromInt(-1))
	assert.Equal(t, core.ErrInvalidAmount, err)
}

func TestRegisterProtocolValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 2)

	_, err := env.registry.RegisterProtocol(ctx, adminPrincipal, "alpha", "Alpha", 500, 20, decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = env.registry.RegisterProtocol(ctx, adminPrincipal, "alpha", "Alpha", 500, 20, decimal.NewFromInt(1000))
	assert.Equal(t, core.ErrProtocolExists, err)

	_, err = env.registry.RegisterProtocol(ctx, adminPrincipal, "beta", "Beta", 500, 101, decimal.NewFromInt(1000))
	assert.Equal(t, core.ErrInvalidRiskScore, err)

	_, err = env.registry.RegisterProtocol(ctx, adminPrincipal, "beta", "Beta", 500, -1, decimal.NewFromInt(1000))
	assert.Equal(t, core.ErrInvalidRiskScore, err)

	_, err = env.registry.RegisterProtocol(ctx, adminPrincipal, "beta", "Beta", 500, 20, decimal.Zero)
	assert.Equal(t, core.ErrInvalidCapacity, err)

	_, err = env.registry.RegisterProtocol(ctx, adminPrincipal, "beta", "Beta", 500, 20, decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = env.registry.RegisterProtocol(ctx, adminPrincipal, "gamma", "Gamma", 500, 20, decimal.NewFromInt(1000))
	assert.Equal(t, core.ErrTooManyProtocols, err)
}

func TestReactivationNeedsRefresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 64)

	_, err := env.registry.RegisterProtocol(ctx, adminPrincipal, "alpha", "Alpha", 500, 20, decimal.NewFromInt(1000))
	require.NoError(t, err)

	require.NoError(t, env.registry.SetProtocolStatus(ctx, adminPrincipal, "alpha", false))
	require.NoError(t, env.registry.SetProtocolStatus(ctx, adminPrincipal, "alpha", true))

	protocol, err := env.protocols.Find(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, protocol.IsActive)
	assert.True(t, protocol.NeedsRefresh)
	assert.False(t, protocol.Selectable())

	// the keeper refreshes rates, clearing the stale flag
	require.NoError(t, env.registry.UpdateProtocolRates(ctx, keeperPrincipal, "alpha", 600, 25))

	protocol, err = env.protocols.Find(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, protocol.NeedsRefresh)
	assert.True(t, protocol.Selectable())
	assert.Equal(t, int64(600), protocol.YieldRateBps)
	assert.Equal(t, int64(25), protocol.RiskScore)
}

func TestUpdateProtocolRatesAuthorization(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 64)

	_, err := env.registry.RegisterProtocol(ctx, adminPrincipal, "alpha", "Alpha", 500, 20, decimal.NewFromInt(1000))
	require.NoError(t, err)

	assert.NoError(t, env.registry.UpdateProtocolRates(ctx, adminPrincipal, "alpha", 600, 25))
	assert.NoError(t, env.registry.UpdateProtocolRates(ctx, keeperPrincipal, "alpha", 700, 30))
	assert.Equal(t, core.ErrUnauthorized, env.registry.UpdateProtocolRates(ctx, "nobody", "alpha", 700, 30))

	assert.Equal(t, core.ErrInvalidRiskScore, env.registry.UpdateProtocolRates(ctx, adminPrincipal, "alpha", 700, 200))
	assert.Equal(t, core.ErrProtocolNotFound, env.registry.UpdateProtocolRates(ctx, adminPrincipal, "beta", 700, 30))
}

func TestSetIdleThreshold(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 64)

	_, err := env.registry.AddAsset(ctx, adminPrincipal, "btc", "BTC", decimal.NewFromInt(100))
	require.NoError(t, err)

	require.NoError(t, env.registry.SetIdleThreshold(ctx, adminPrincipal, "btc", decimal.NewFromInt(500)))

	asset, err := env.assets.Find(ctx, "btc")
	require.NoError(t, err)
	assert.Equal(t, "500", asset.IdleThreshold.String())

	assert.Equal(t, core.ErrInvalidAmount, env.registry.SetIdleThreshold(ctx, adminPrincipal, "btc", decimal.NewFromInt(-1)))
}

func TestRegistryPaused(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 64)
	env.system.IsPaused = true

	_, err := env.registry.AddAsset(ctx, adminPrincipal, "btc", "BTC", decimal.Zero)
	assert.Equal(t, core.ErrSystemPaused, err)

	_, err = env.registry.RegisterProtocol(ctx, adminPrincipal, "alpha", "Alpha", 500, 20, decimal.NewFromInt(1))
	assert.Equal(t, core.ErrSystemPaused, err)
}
