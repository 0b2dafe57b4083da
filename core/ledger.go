package core

import (
	"context"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// ILedgerService is the mutating surface of the ledger. Every call is
// all-or-nothing: it authorizes the principal, runs inside one transaction
// and either fully commits or leaves the ledger untouched.
type ILedgerService interface {
	// Deposit credits user funds and may trigger an opportunistic rebalance.
	Deposit(ctx context.Context, principal, assetID, userID string, amount decimal.Decimal) (*Record, error)
	// Withdraw debits user funds from available liquidity only.
	Withdraw(ctx context.Context, principal, assetID, userID string, amount decimal.Decimal) (*Record, error)
	// Access lets an active protocol pull available liquidity on demand.
	Access(ctx context.Context, principal, protocolID, assetID, userID string, amount decimal.Decimal) (*Record, error)
	// Return gives allocated liquidity back, distributing yield if any.
	Return(ctx context.Context, principal, protocolID, assetID, userID string, amount, yieldAmount decimal.Decimal) (*Record, error)
	// EmergencyWithdraw is the admin crisis-recovery path; it bypasses user
	// balances and is exempt from the guardian pause.
	EmergencyWithdraw(ctx context.Context, principal, assetID, to string, amount decimal.Decimal) (*Record, error)
}

// AllocationTrigger names the two rebalance paths.
type AllocationTrigger string

const (
	// TriggerOpportunistic runs synchronously after deposits and commits
	// only a configured fraction of idle capital.
	TriggerOpportunistic AllocationTrigger = "opportunistic"
	// TriggerKeeper is the explicit keeper path committing full idle capital.
	TriggerKeeper AllocationTrigger = "keeper"
)

// IAllocatorService computes idle capital and moves it to the best-scoring
// protocol.
type IAllocatorService interface {
	// Opportunistic is invoked by the ledger after a deposit. A gate miss
	// (threshold, cooldown, no qualifying protocol) is a nil no-op.
	Opportunistic(ctx context.Context, assetID string) (*Record, error)
	// DetectAndReallocate is the keeper-triggered full rebalance. It resets
	// the cooldown; calling again within the window fails ErrCooldownActive.
	DetectAndReallocate(ctx context.Context, principal, assetID string) (*Record, error)
}

// IYieldService splits returned yield into protocol fee, treasury fee and
// depositor yield, compounding the latter into the asset pool. It runs inside
// the caller's transaction; the caller persists the mutated asset.
type IYieldService interface {
	Distribute(ctx context.Context, tx *db.DB, asset *Asset, protocolID string, yieldAmount decimal.Decimal) (decimal.Decimal, error)
}

// IRegistryService is the admin lifecycle surface for assets and protocols.
type IRegistryService interface {
	AddAsset(ctx context.Context, principal, assetID, symbol string, idleThreshold decimal.Decimal) (*Asset, error)
	SetAssetStatus(ctx context.Context, principal, assetID string, active bool) error
	SetIdleThreshold(ctx context.Context, principal, assetID string, threshold decimal.Decimal) error
	RegisterProtocol(ctx context.Context, principal, protocolID, name string, yieldRateBps, riskScore int64, maxCapacity decimal.Decimal) (*Protocol, error)
	SetProtocolStatus(ctx context.Context, principal, protocolID string, active bool) error
	UpdateProtocolRates(ctx context.Context, principal, protocolID string, yieldRateBps, riskScore int64) error
}
