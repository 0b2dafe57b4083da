package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Allocation is the amount of one asset's liquidity currently assigned to one
// protocol. It is a pure bookkeeping entry: no custody moves. The sum of all
// allocations of an asset equals the asset's TotalUtilized.
type Allocation struct {
	ID         uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	ProtocolID string          `sql:"size:36;unique_index:allocation_idx" json:"protocol_id"`
	AssetID    string          `sql:"size:36;unique_index:allocation_idx" json:"asset_id"`
	Amount     decimal.Decimal `sql:"type:decimal(32,16)" json:"amount"`
	Version    int64           `sql:"default:0" json:"version"`
	CreatedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IAllocationStore allocation store interface
type IAllocationStore interface {
	Save(ctx context.Context, tx *db.DB, allocation *Allocation) error
	Find(ctx context.Context, protocolID, assetID string) (*Allocation, error)
	FindByProtocol(ctx context.Context, protocolID string) ([]*Allocation, error)
	FindByAsset(ctx context.Context, assetID string) ([]*Allocation, error)
	SumByAsset(ctx context.Context, assetID string) (decimal.Decimal, error)
}
