package allocator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"flowpool/config"
	"flowpool/core"
	"flowpool/service/allocator"
	"flowpool/service/gate"
	"flowpool/service/servicetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keeperPrincipal = "keeper"

type testEnv struct {
	assets      *servicetest.AssetStore
	protocols   *servicetest.ProtocolStore
	allocations *servicetest.AllocationStore
	records     *servicetest.RecordStore
	system      *servicetest.System
	allocator   core.IAllocatorService
}

func newTestEnv(t *testing.T, cfg allocator.Config) *testEnv {
	env := &testEnv{
		assets:      &servicetest.AssetStore{},
		protocols:   &servicetest.ProtocolStore{},
		allocations: &servicetest.AllocationStore{},
		records:     &servicetest.RecordStore{},
		system:      &servicetest.System{},
	}

	g := gate.New(servicetest.Transactor{}, &servicetest.GrantStore{}, &config.Genesis{
		Keepers: []string{keeperPrincipal},
	}, env.system)

	env.allocator = allocator.New(servicetest.Transactor{}, &sync.Mutex{}, cfg,
		g, env.system, env.assets, env.protocols, env.allocations, env.records)

	return env
}

func defaultConfig() allocator.Config {
	return allocator.Config{
		MinRebalanceInterval: time.Hour,
		OpportunisticPercent: 50,
		MaxProtocols:         64,
	}
}

func (env *testEnv) createAsset(t *testing.T, assetID string, deposited, threshold int64) {
	require.NoError(t, env.assets.Create(context.Background(), nil, &core.Asset{
		AssetID:         assetID,
		TotalDeposited:  decimal.NewFromInt(deposited),
		TotalShares:     decimal.NewFromInt(deposited),
		IdleThreshold:   decimal.NewFromInt(threshold),
		IsActive:        true,
		LastRebalanceAt: time.Unix(0, 0),
	}))
}

func (env *testEnv) createProtocol(t *testing.T, protocolID string, yieldRateBps, riskScore, maxCapacity int64) {
	require.NoError(t, env.protocols.Create(context.Background(), nil, &core.Protocol{
		ProtocolID:   protocolID,
		Name:         protocolID,
		IsActive:     true,
		YieldRateBps: yieldRateBps,
		RiskScore:    riskScore,
		MaxCapacity:  decimal.NewFromInt(maxCapacity),
	}))
}

func (env *testEnv) asset(t *testing.T, assetID string) *core.Asset {
	asset, err := env.assets.Find(context.Background(), assetID)
	require.NoError(t, err)
	return asset
}

func TestKeeperPicksBestScore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 1000, 100)
	// 500bps at risk 20 scores 405; 800bps at risk 40 scores 488
	env.createProtocol(t, "alpha", 500, 20, 5000)
	env.createProtocol(t, "beta", 800, 40, 5000)

	record, err := env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "beta", record.ProtocolID)
	assert.Equal(t, "1000", record.Amount.String())

	asset := env.asset(t, "btc")
	assert.Equal(t, "1000", asset.TotalUtilized.String())
	assert.False(t, asset.LastRebalanceAt.Equal(time.Unix(0, 0)))
}

func TestKeeperCooldown(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 1000, 100)
	// capacity clamps the first pass so idle capital remains for the second
	env.createProtocol(t, "alpha", 500, 20, 600)

	record, err := env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "600", record.Amount.String())

	_, err = env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	assert.Equal(t, core.ErrCooldownActive, err)

	// the failed pass changed nothing
	asset := env.asset(t, "btc")
	assert.Equal(t, "600", asset.TotalUtilized.String())
}

func TestTieBreaksByRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 1000, 100)
	env.createProtocol(t, "alpha", 500, 20, 5000)
	env.createProtocol(t, "beta", 500, 20, 5000)

	record, err := env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "alpha", record.ProtocolID)
}

func TestSkipsUnselectableProtocols(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 1000, 100)

	env.createProtocol(t, "inactive", 900, 10, 5000)
	p, err := env.protocols.Find(ctx, "inactive")
	require.NoError(t, err)
	p.IsActive = false
	require.NoError(t, env.protocols.Update(ctx, nil, p))

	env.createProtocol(t, "stale", 900, 10, 5000)
	p, err = env.protocols.Find(ctx, "stale")
	require.NoError(t, err)
	p.NeedsRefresh = true
	require.NoError(t, env.protocols.Update(ctx, nil, p))

	env.createProtocol(t, "full", 900, 10, 100)
	require.NoError(t, env.allocations.Save(ctx, nil, &core.Allocation{
		ProtocolID: "full",
		AssetID:    "btc",
		Amount:     decimal.NewFromInt(100),
	}))

	env.createProtocol(t, "alpha", 300, 50, 5000)

	record, err := env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "alpha", record.ProtocolID)
}

func TestNoQualifyingProtocolIsNoop(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 1000, 100)

	record, err := env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	require.NoError(t, err)
	assert.Nil(t, record)

	asset := env.asset(t, "btc")
	assert.True(t, asset.TotalUtilized.IsZero())
}

func TestOpportunisticCommitsHalf(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 1000, 100)
	env.createProtocol(t, "alpha", 500, 20, 5000)

	record, err := env.allocator.Opportunistic(ctx, "btc")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "500", record.Amount.String())

	asset := env.asset(t, "btc")
	assert.Equal(t, "500", asset.TotalUtilized.String())
	assert.True(t, asset.LastRebalanceAt.Equal(time.Unix(0, 0)))

	// half of the remaining idle again; no cooldown on this path
	record, err = env.allocator.Opportunistic(ctx, "btc")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "250", record.Amount.String())
}

func TestIdleThresholdGate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 100, 100)
	env.createProtocol(t, "alpha", 500, 20, 5000)

	// idle equals the threshold; allocation requires strictly more
	record, err := env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestKeeperGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 1000, 100)
	env.createProtocol(t, "alpha", 500, 20, 5000)

	_, err := env.allocator.DetectAndReallocate(ctx, "nobody", "btc")
	assert.Equal(t, core.ErrUnauthorized, err)

	env.system.IsPaused = true
	_, err = env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	assert.Equal(t, core.ErrSystemPaused, err)

	env.system.IsPaused = false
	_, err = env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "eth")
	assert.Equal(t, core.ErrAssetNotFound, err)
}

func TestInactiveAsset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultConfig())
	env.createAsset(t, "btc", 1000, 100)
	env.createProtocol(t, "alpha", 500, 20, 5000)

	asset := env.asset(t, "btc")
	asset.IsActive = false
	require.NoError(t, env.assets.Update(ctx, nil, asset))

	_, err := env.allocator.DetectAndReallocate(ctx, keeperPrincipal, "btc")
	assert.Equal(t, core.ErrAssetInactive, err)

	record, err := env.allocator.Opportunistic(ctx, "btc")
	require.NoError(t, err)
	assert.Nil(t, record)
}
