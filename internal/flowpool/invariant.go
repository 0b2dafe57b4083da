package flowpool

import (
	"fmt"

	"flowpool/core"

	"github.com/shopspring/decimal"
)

// Audit checks the closed-system invariants of one asset:
//
//	totalUtilized <= totalDeposited
//	sum(balance shares) == totalShares
//	sum(allocations)    == totalUtilized
//
// A non-nil error means the ledger arithmetic is broken. Callers treat it as
// fatal for active assets; assets force-deactivated by an emergency withdraw
// are exempt, since that path is allowed to leave the books unbalanced.
func Audit(asset *core.Asset, sumShares, sumAllocations decimal.Decimal) error {
	if asset.TotalUtilized.GreaterThan(asset.TotalDeposited) {
		return fmt.Errorf("asset %s: utilized %s exceeds deposited %s",
			asset.AssetID, asset.TotalUtilized, asset.TotalDeposited)
	}

	if !sumShares.Equal(asset.TotalShares) {
		return fmt.Errorf("asset %s: share sum %s != total shares %s",
			asset.AssetID, sumShares, asset.TotalShares)
	}

	if !sumAllocations.Equal(asset.TotalUtilized) {
		return fmt.Errorf("asset %s: allocation sum %s != utilized %s",
			asset.AssetID, sumAllocations, asset.TotalUtilized)
	}

	return nil
}

// CheckCapacity verifies a single allocation row against its protocol cap.
func CheckCapacity(protocol *core.Protocol, allocated decimal.Decimal) error {
	if allocated.GreaterThan(protocol.MaxCapacity) {
		return fmt.Errorf("protocol %s: allocation %s exceeds capacity %s",
			protocol.ProtocolID, allocated, protocol.MaxCapacity)
	}

	return nil
}
