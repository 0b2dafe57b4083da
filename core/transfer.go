package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Transfer is a pending outbound transfer task. The ledger writes the row in
// the same transaction as the state mutation that caused it; the cashier
// worker executes it afterwards. A callee re-entering the ledger therefore
// only ever observes post-mutation state.
type Transfer struct {
	ID         uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	TraceID    string          `sql:"size:36;unique_index:trace_idx" json:"trace_id,omitempty"`
	OpponentID string          `sql:"size:64" json:"opponent_id,omitempty"`
	AssetID    string          `sql:"size:36" json:"asset_id,omitempty"`
	Amount     decimal.Decimal `sql:"type:decimal(32,16)" json:"amount,omitempty"`
	Memo       string          `sql:"size:140" json:"memo,omitempty"`
	CreatedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at,omitempty"`
}

// ITransferStore transfer store interface
type ITransferStore interface {
	Create(ctx context.Context, tx *db.DB, transfer *Transfer) error
	Delete(ctx context.Context, tx *db.DB, id ...uint64) error
	Top(ctx context.Context, limit int) ([]*Transfer, error)
}

// TransferExecutor performs the actual asset movement for a transfer task.
// Token custody mechanics live outside this system; the default executor only
// logs the task and acknowledges it.
type TransferExecutor interface {
	Execute(ctx context.Context, transfer *Transfer) error
}
