package config

import (
	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
)

// Config flowpool node config
type Config struct {
	App        App        `json:"app"`
	DB         db.Config  `json:"db"`
	Fees       Fees       `json:"fees"`
	Allocation Allocation `json:"allocation"`
	Genesis    Genesis    `json:"genesis"`
}

// App app config
type App struct {
	Location string `json:"location"`
	Port     int    `json:"port"`
}

// Fees yield distribution config. The bps sum must stay within 10000; load
// rejects anything else so distribution never has to.
type Fees struct {
	ProtocolFeeBps int64 `json:"protocol_fee_bps"`
	TreasuryFeeBps int64 `json:"treasury_fee_bps"`
}

// Allocation engine policy knobs
type Allocation struct {
	// MinRebalanceSeconds is the cooldown between keeper rebalances per asset.
	MinRebalanceSeconds int64 `json:"min_rebalance_seconds" valid:"required"`
	// OpportunisticPercent is the share of idle capital (0-100) committed on
	// the post-deposit path; the keeper path always commits the full idle.
	// When omitted it defaults to 50; an explicit 0 disables the
	// opportunistic path entirely.
	OpportunisticPercent *int64 `json:"opportunistic_percent"`
	// MaxProtocols bounds the registry scan.
	MaxProtocols int64 `json:"max_protocols"`
	// KeeperPrincipal is the identity the rebalancer worker acts as.
	KeeperPrincipal string `json:"keeper_principal"`
}

// Genesis bootstrap capability grants; runtime grants live in the store.
type Genesis struct {
	Admins    []string `json:"admins"`
	Keepers   []string `json:"keepers"`
	Guardians []string `json:"guardians"`
	Protocols []string `json:"protocols"`
}

// Granted reports whether the principal holds the capability by bootstrap
// configuration.
func (g *Genesis) Granted(principal string, capability core.Capability) bool {
	var list []string
	switch capability {
	case core.CapabilityAdmin:
		list = g.Admins
	case core.CapabilityKeeper:
		list = g.Keepers
	case core.CapabilityGuardian:
		list = g.Guardians
	case core.CapabilityProtocol:
		list = g.Protocols
	}

	for _, p := range list {
		if p == principal {
			return true
		}
	}

	return false
}
