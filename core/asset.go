package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Asset is the per-asset aggregate ledger state. Rows are created once by an
// admin call and never deleted; deactivation only excludes the asset from new
// deposits and allocations.
type Asset struct {
	ID              uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID         string          `sql:"size:36;unique_index:asset_idx" json:"asset_id"`
	Symbol          string          `sql:"size:20" json:"symbol"`
	TotalDeposited  decimal.Decimal `sql:"type:decimal(32,16)" json:"total_deposited"`
	TotalShares     decimal.Decimal `sql:"type:decimal(32,16)" json:"total_shares"`
	TotalUtilized   decimal.Decimal `sql:"type:decimal(32,16)" json:"total_utilized"`
	IdleThreshold   decimal.Decimal `sql:"type:decimal(32,16)" json:"idle_threshold"`
	LastRebalanceAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"last_rebalance_at"`
	IsActive        bool            `sql:"default:1" json:"is_active"`
	Version         int64           `sql:"default:0" json:"version"`
	CreatedAt       time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// AvailableLiquidity is the portion of the pool not assigned to any protocol.
func (a *Asset) AvailableLiquidity() decimal.Decimal {
	return a.TotalDeposited.Sub(a.TotalUtilized)
}

// IdleCapital equals available liquidity; kept as its own accessor because the
// allocation engine reasons about it against the idle threshold.
func (a *Asset) IdleCapital() decimal.Decimal {
	return a.AvailableLiquidity()
}

// SharePrice returns the implicit price of one share. It starts at 1 and rises
// as depositor yield compounds into TotalDeposited.
func (a *Asset) SharePrice() decimal.Decimal {
	if a.TotalShares.IsZero() {
		return decimal.New(1, 0)
	}

	return a.TotalDeposited.DivRound(a.TotalShares, 16)
}

// IAssetStore asset store interface
type IAssetStore interface {
	Create(ctx context.Context, tx *db.DB, asset *Asset) error
	Find(ctx context.Context, assetID string) (*Asset, error)
	All(ctx context.Context) ([]*Asset, error)
	Update(ctx context.Context, tx *db.DB, asset *Asset) error
}
