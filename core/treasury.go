package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// TreasuryAccount is the account fee balances accrue to for the platform
// share; protocol fee shares accrue to the protocol id itself.
const TreasuryAccount = "treasury"

// Treasury is a fee balance keyed by account and asset. These balances sit
// outside the pooled ledger: they are earned fees, not depositor funds.
type Treasury struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Account   string          `sql:"size:64;unique_index:treasury_idx" json:"account"`
	AssetID   string          `sql:"size:36;unique_index:treasury_idx" json:"asset_id"`
	Amount    decimal.Decimal `sql:"type:decimal(32,16)" json:"amount"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ITreasuryStore treasury store interface
type ITreasuryStore interface {
	Save(ctx context.Context, tx *db.DB, treasury *Treasury) error
	Find(ctx context.Context, account, assetID string) (*Treasury, error)
	FindByAccount(ctx context.Context, account string) ([]*Treasury, error)
}
