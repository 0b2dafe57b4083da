package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Balance is a user's position in one asset, kept as shares. Shares are minted
// 1:1 with deposited amount at the initial share price; compounding raises the
// price rather than the share count. Rows are created lazily on first deposit
// and may go to zero but are never removed.
type Balance struct {
	UserID    string          `sql:"size:36;PRIMARY_KEY" json:"user_id"`
	AssetID   string          `sql:"size:36;PRIMARY_KEY" json:"asset_id"`
	Shares    decimal.Decimal `sql:"type:decimal(32,16)" json:"shares"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IBalanceStore balance store interface
type IBalanceStore interface {
	Save(ctx context.Context, tx *db.DB, balance *Balance) error
	Find(ctx context.Context, userID, assetID string) (*Balance, error)
	FindByUser(ctx context.Context, userID string) ([]*Balance, error)
	SumShares(ctx context.Context, assetID string) (decimal.Decimal, error)
}
