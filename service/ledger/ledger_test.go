package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"flowpool/config"
	"flowpool/core"
	"flowpool/pkg/number"
	"flowpool/service/allocator"
	"flowpool/service/gate"
	"flowpool/service/ledger"
	"flowpool/service/servicetest"
	"flowpool/service/yield"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminPrincipal    = "admin"
	keeperPrincipal   = "keeper"
	guardianPrincipal = "guardian"
	vaultPrincipal    = "vault"
)

type testEnv struct {
	assets      *servicetest.AssetStore
	balances    *servicetest.BalanceStore
	protocols   *servicetest.ProtocolStore
	allocations *servicetest.AllocationStore
	transfers   *servicetest.TransferStore
	records     *servicetest.RecordStore
	treasuries  *servicetest.TreasuryStore
	system      *servicetest.System
	ledger      core.ILedgerService
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		assets:      &servicetest.AssetStore{},
		balances:    &servicetest.BalanceStore{},
		protocols:   &servicetest.ProtocolStore{},
		allocations: &servicetest.AllocationStore{},
		transfers:   &servicetest.TransferStore{},
		records:     &servicetest.RecordStore{},
		treasuries:  &servicetest.TreasuryStore{},
		system:      &servicetest.System{},
	}

	genesis := &config.Genesis{
		Admins:    []string{adminPrincipal},
		Keepers:   []string{keeperPrincipal},
		Guardians: []string{guardianPrincipal},
		Protocols: []string{vaultPrincipal},
	}

	db := servicetest.Transactor{}
	mux := &sync.Mutex{}
	g := gate.New(db, &servicetest.GrantStore{}, genesis, env.system)
	y := yield.New(config.Fees{ProtocolFeeBps: 1000, TreasuryFeeBps: 500}, env.treasuries)
	a := allocator.New(db, mux, allocator.Config{
		MinRebalanceInterval: time.Hour,
		OpportunisticPercent: 50,
		MaxProtocols:         64,
	}, g, env.system, env.assets, env.protocols, env.allocations, env.records)

	env.ledger = ledger.New(db, mux, g, env.system,
		env.assets, env.balances, env.protocols, env.allocations,
		env.transfers, env.records, y, a)

	return env
}

func (env *testEnv) createAsset(t *testing.T, assetID string, threshold int64) {
	require.NoError(t, env.assets.Create(context.Background(), nil, &core.Asset{
		AssetID:         assetID,
		Symbol:          "TKN",
		IdleThreshold:   decimal.NewFromInt(threshold),
		IsActive:        true,
		LastRebalanceAt: time.Unix(0, 0),
	}))
}

func (env *testEnv) createProtocol(t *testing.T, protocolID string, yieldRateBps, riskScore int64, maxCapacity int64) {
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

func TestDepositAndWithdraw(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)

	record, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, core.ActionDeposit, record.Action)

	balance, err := env.balances.Find(ctx, "u1", "btc")
	require.NoError(t, err)
	assert.Equal(t, "100", balance.Shares.String())

	asset := env.asset(t, "btc")
	assert.Equal(t, "100", asset.TotalDeposited.String())
	assert.Equal(t, "100", asset.TotalShares.String())

	_, err = env.ledger.Withdraw(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(40))
	require.NoError(t, err)

	balance, err = env.balances.Find(ctx, "u1", "btc")
	require.NoError(t, err)
	assert.Equal(t, "60", balance.Shares.String())

	asset = env.asset(t, "btc")
	assert.Equal(t, "60", asset.TotalDeposited.String())

	require.Len(t, env.transfers.Transfers, 1)
	payout := env.transfers.Transfers[0]
	assert.Equal(t, "u1", payout.OpponentID)
	assert.Equal(t, "40", payout.Amount.String())

	assert.Len(t, env.records.ByAction(core.ActionDeposit), 1)
	assert.Len(t, env.records.ByAction(core.ActionWithdraw), 1)
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = env.ledger.Withdraw(ctx, vaultPrincipal, "btc", "u2", decimal.NewFromInt(1))
	assert.Equal(t, core.ErrInsufficientBalance, err)
}

func TestWithdrawLockedLiquidity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)
	env.createProtocol(t, "alpha", 500, 20, 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = env.ledger.Access(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(60))
	require.NoError(t, err)

	// balance covers it but 60 of the pool sits with alpha
	_, err = env.ledger.Withdraw(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(50))
	assert.Equal(t, core.ErrInsufficientLiquidity, err)

	_, err = env.ledger.Withdraw(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(40))
	assert.NoError(t, err)
}

func TestAccessReturnRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)
	env.createProtocol(t, "alpha", 500, 20, 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = env.ledger.Access(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(60))
	require.NoError(t, err)

	asset := env.asset(t, "btc")
	assert.Equal(t, "60", asset.TotalUtilized.String())
	assert.Equal(t, "40", asset.AvailableLiquidity().String())

	_, err = env.ledger.Return(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(60), decimal.Zero)
	require.NoError(t, err)

	asset = env.asset(t, "btc")
	assert.Equal(t, "0", asset.TotalUtilized.String())
	assert.Equal(t, "100", asset.TotalDeposited.String())

	allocation, err := env.allocations.Find(ctx, "alpha", "btc")
	require.NoError(t, err)
	assert.Equal(t, "0", allocation.Amount.String())
}

func TestReturnYieldSplit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)
	env.createProtocol(t, "alpha", 500, 20, 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = env.ledger.Access(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = env.ledger.Return(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(100), decimal.NewFromInt(50))
	require.NoError(t, err)

	protocolFee, err := env.treasuries.Find(ctx, "alpha", "btc")
	require.NoError(t, err)
	assert.Equal(t, "5", protocolFee.Amount.String())

	treasuryFee, err := env.treasuries.Find(ctx, core.TreasuryAccount, "btc")
	require.NoError(t, err)
	assert.Equal(t, "2.5", treasuryFee.Amount.String())

	asset := env.asset(t, "btc")
	assert.Equal(t, "142.5", asset.TotalDeposited.String())
	assert.Equal(t, "100", asset.TotalShares.String())
	assert.Equal(t, "1.425", asset.SharePrice().String())

	// share count is unchanged; the full position now redeems 142.5
	_, err = env.ledger.Withdraw(ctx, vaultPrincipal, "btc", "u1", number.Decimal("142.5"))
	require.NoError(t, err)

	balance, err := env.balances.Find(ctx, "u1", "btc")
	require.NoError(t, err)
	assert.True(t, balance.Shares.IsZero())

	asset = env.asset(t, "btc")
	assert.True(t, asset.TotalDeposited.IsZero())

	assert.Len(t, env.records.ByAction(core.ActionYield), 1)
}

func TestAccessCapacityExceeded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)
	env.createProtocol(t, "alpha", 500, 20, 50)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = env.ledger.Access(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(60))
	assert.Equal(t, core.ErrCapacityExceeded, err)

	asset := env.asset(t, "btc")
	assert.True(t, asset.TotalUtilized.IsZero())
}

func TestReturnInsufficientAllocation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)
	env.createProtocol(t, "alpha", 500, 20, 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = env.ledger.Access(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(30))
	require.NoError(t, err)

	_, err = env.ledger.Return(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(40), decimal.Zero)
	assert.Equal(t, core.ErrInsufficientAllocation, err)
}

func TestPauseBlocksMutations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)
	env.createProtocol(t, "alpha", 500, 20, 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	env.system.IsPaused = true

	_, err = env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(1))
	assert.Equal(t, core.ErrSystemPaused, err)
	_, err = env.ledger.Withdraw(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(1))
	assert.Equal(t, core.ErrSystemPaused, err)
	_, err = env.ledger.Access(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(1))
	assert.Equal(t, core.ErrSystemPaused, err)
	_, err = env.ledger.Return(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(1), decimal.Zero)
	assert.Equal(t, core.ErrSystemPaused, err)

	// emergency recovery stays available while paused
	_, err = env.ledger.EmergencyWithdraw(ctx, adminPrincipal, "btc", "recovery", decimal.NewFromInt(10))
	assert.NoError(t, err)
}

func TestUnauthorizedLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)

	_, err := env.ledger.Deposit(ctx, "nobody", "btc", "u1", decimal.NewFromInt(100))
	assert.Equal(t, core.ErrUnauthorized, err)

	_, err = env.ledger.EmergencyWithdraw(ctx, keeperPrincipal, "btc", "recovery", decimal.NewFromInt(1))
	assert.Equal(t, core.ErrUnauthorized, err)

	asset := env.asset(t, "btc")
	assert.True(t, asset.TotalDeposited.IsZero())
	assert.Empty(t, env.records.Records)
}

func TestEmergencyWithdrawForceDeactivates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)
	env.createProtocol(t, "alpha", 500, 20, 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = env.ledger.Access(ctx, vaultPrincipal, "alpha", "btc", "u1", decimal.NewFromInt(60))
	require.NoError(t, err)

	record, err := env.ledger.EmergencyWithdraw(ctx, adminPrincipal, "btc", "recovery", decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.Equal(t, core.ActionEmergency, record.Action)

	asset := env.asset(t, "btc")
	assert.Equal(t, "20", asset.TotalDeposited.String())
	assert.Equal(t, "60", asset.TotalUtilized.String())
	assert.False(t, asset.IsActive)

	require.Len(t, env.transfers.Transfers, 1)
	assert.Equal(t, "recovery", env.transfers.Transfers[0].OpponentID)

	// deactivated assets accept no new deposits
	_, err = env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(1))
	assert.Equal(t, core.ErrAssetInactive, err)
}

func TestDepositTriggersOpportunisticRebalance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 10)
	env.createProtocol(t, "alpha", 500, 20, 10000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	asset := env.asset(t, "btc")
	assert.Equal(t, "50", asset.TotalUtilized.String())
	// the opportunistic path never resets the keeper cooldown
	assert.True(t, asset.LastRebalanceAt.Equal(time.Unix(0, 0)))

	allocation, err := env.allocations.Find(ctx, "alpha", "btc")
	require.NoError(t, err)
	assert.Equal(t, "50", allocation.Amount.String())

	reallocations := env.records.ByAction(core.ActionReallocate)
	require.Len(t, reallocations, 1)
	assert.Contains(t, reallocations[0].Extra, "opportunistic")
}

func TestDepositRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.Zero)
	assert.Equal(t, core.ErrInvalidAmount, err)

	_, err = env.ledger.Deposit(ctx, vaultPrincipal, "btc", "", decimal.NewFromInt(1))
	assert.Equal(t, core.ErrInvalidPrincipal, err)

	_, err = env.ledger.Deposit(ctx, vaultPrincipal, "eth", "u1", decimal.NewFromInt(1))
	assert.Equal(t, core.ErrAssetNotFound, err)
}

func TestWithdrawDustBurnsShares(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAsset(t, "btc", 1000)

	_, err := env.ledger.Deposit(ctx, vaultPrincipal, "btc", "u1", decimal.NewFromInt(100))
	require.NoError(t, err)

	// the share cost of a dust amount rounds up to a full share unit, so a
	// user holding no shares cannot drain the pool
	_, err = env.ledger.Withdraw(ctx, vaultPrincipal, "btc", "u2", number.Decimal("0.000000001"))
	assert.Equal(t, core.ErrInsufficientBalance, err)

	asset := env.asset(t, "btc")
	assert.Equal(t, "100", asset.TotalDeposited.String())
	assert.Empty(t, env.transfers.Transfers)

	_, err = env.ledger.Withdraw(ctx, vaultPrincipal, "btc", "u1", number.Decimal("0.000000001"))
	require.NoError(t, err)

	balance, err := env.balances.Find(ctx, "u1", "btc")
	require.NoError(t, err)
	assert.Equal(t, "99.99999999", balance.Shares.String())

	asset = env.asset(t, "btc")
	assert.Equal(t, "99.99999999", asset.TotalShares.String())
	assert.Equal(t, "99.999999999", asset.TotalDeposited.String())
}
