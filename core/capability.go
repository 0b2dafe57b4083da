package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// Capability is a named permission a principal may hold. Every mutating entry
// point declares the minimum capability it requires.
type Capability string

const (
	// CapabilityAdmin manages registries, grants and emergency recovery
	CapabilityAdmin Capability = "admin"
	// CapabilityKeeper triggers explicit rebalances and rate refreshes
	CapabilityKeeper Capability = "keeper"
	// CapabilityProtocol moves user funds and pool liquidity
	CapabilityProtocol Capability = "protocol"
	// CapabilityGuardian pauses and unpauses the system
	CapabilityGuardian Capability = "guardian"
)

// Valid reports whether c is one of the known capabilities.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityAdmin, CapabilityKeeper, CapabilityProtocol, CapabilityGuardian:
		return true
	}
	return false
}

// Grant is one row of the capability grant table.
type Grant struct {
	ID         uint64     `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Principal  string     `sql:"size:64;unique_index:grant_idx" json:"principal"`
	Capability Capability `sql:"size:16;unique_index:grant_idx" json:"capability"`
	CreatedAt  time.Time  `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IGrantStore capability grant store interface
type IGrantStore interface {
	Save(ctx context.Context, tx *db.DB, grant *Grant) error
	Delete(ctx context.Context, tx *db.DB, principal string, capability Capability) error
	Find(ctx context.Context, principal string) ([]*Grant, error)
	All(ctx context.Context) ([]*Grant, error)
}

// IGate authorizes principals against required capabilities. Authorize must be
// called before any state is touched; it returns ErrUnauthorized when the
// principal lacks the capability.
type IGate interface {
	Authorize(ctx context.Context, principal string, capability Capability) error
	Grant(ctx context.Context, operator, principal string, capability Capability) error
	Revoke(ctx context.Context, operator, principal string, capability Capability) error
}
