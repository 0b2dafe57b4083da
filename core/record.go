package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Action enumerates the ledger operations that leave an audit record.
type Action string

const (
	ActionDeposit    Action = "deposit"
	ActionWithdraw   Action = "withdraw"
	ActionAccess     Action = "access"
	ActionReturn     Action = "return"
	ActionReallocate Action = "reallocate"
	ActionYield      Action = "yield"
	ActionEmergency  Action = "emergency_withdraw"
)

// Record is one entry of the audit log. Every mutating operation writes one
// inside its own transaction.
type Record struct {
	ID         uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID    string          `sql:"size:36;unique_index:record_trace_idx" json:"trace_id"`
	Action     Action          `sql:"size:24;index:record_action_idx" json:"action"`
	AssetID    string          `sql:"size:36;index:record_asset_idx" json:"asset_id"`
	UserID     string          `sql:"size:36" json:"user_id,omitempty"`
	ProtocolID string          `sql:"size:36" json:"protocol_id,omitempty"`
	Amount     decimal.Decimal `sql:"type:decimal(32,16)" json:"amount"`
	Extra      string          `sql:"size:512" json:"extra,omitempty"`
	CreatedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// SetExtra marshals v into the record's extra column, ignoring marshal errors
// since extra is informational only.
func (r *Record) SetExtra(v interface{}) {
	if data, err := json.Marshal(v); err == nil {
		r.Extra = string(data)
	}
}

// IRecordStore record store interface
type IRecordStore interface {
	Create(ctx context.Context, tx *db.DB, record *Record) error
	List(ctx context.Context, assetID string, limit int) ([]*Record, error)
}
