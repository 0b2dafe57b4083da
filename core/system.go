package core

import (
	"context"

	"github.com/fox-one/pkg/store/db"
)

// SysVersion ledger schema/protocol version
const SysVersion int64 = 1

// SysPausedKey property key holding the guardian pause flag
const SysPausedKey = "system_paused"

// Transactor runs fn inside one database transaction. *db.DB satisfies it;
// tests substitute an in-memory implementation so services stay testable
// without a database.
type Transactor interface {
	Tx(fn func(tx *db.DB) error) error
}

// IPauseReader reads the guardian pause flag. It is the narrow dependency for
// services that must honor the pause but cannot hold the full system service.
type IPauseReader interface {
	Paused(ctx context.Context) (bool, error)
}

// ISystemService exposes the guardian pause switch.
type ISystemService interface {
	IPauseReader
	SetPause(ctx context.Context, principal string, paused bool) error
}
