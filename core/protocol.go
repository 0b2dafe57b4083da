package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// MaxRiskScore is the upper bound of the reported risk score; 0 is safest.
const MaxRiskScore = 100

// Protocol is a registered external yield source. The auto-increment row id
// fixes registration order, which breaks scoring ties deterministically.
// Rows are never deleted so historical allocations stay attributable.
type Protocol struct {
	ID           uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	ProtocolID   string          `sql:"size:36;unique_index:protocol_idx" json:"protocol_id"`
	Name         string          `sql:"size:64" json:"name"`
	IsActive     bool            `sql:"default:1" json:"is_active"`
	YieldRateBps int64           `sql:"default:0" json:"yield_rate_bps"`
	RiskScore    int64           `sql:"default:0" json:"risk_score"`
	MaxCapacity  decimal.Decimal `sql:"type:decimal(32,16)" json:"max_capacity"`
	// NeedsRefresh is set on re-activation; the entry is excluded from
	// selection until an explicit rate refresh clears it.
	NeedsRefresh bool      `sql:"default:0" json:"needs_refresh"`
	Version      int64     `sql:"default:0" json:"version"`
	CreatedAt    time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Selectable reports whether the allocation engine may consider this protocol.
func (p *Protocol) Selectable() bool {
	return p.IsActive && !p.NeedsRefresh
}

// IProtocolStore protocol store interface
type IProtocolStore interface {
	Create(ctx context.Context, tx *db.DB, protocol *Protocol) error
	Find(ctx context.Context, protocolID string) (*Protocol, error)
	// All returns protocols in registration order.
	All(ctx context.Context) ([]*Protocol, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, tx *db.DB, protocol *Protocol) error
}
