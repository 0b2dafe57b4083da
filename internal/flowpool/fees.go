package flowpool

import "github.com/shopspring/decimal"

var bpsBase = decimal.NewFromInt(10000)

// FeeSplit is the outcome of distributing a returned yield amount.
type FeeSplit struct {
	ProtocolFee    decimal.Decimal
	TreasuryFee    decimal.Decimal
	DepositorYield decimal.Decimal
}

// SplitYield divides yield into protocol fee, treasury fee and the depositor
// remainder. Fee configurations with protocolFeeBps+treasuryFeeBps > 10000 are
// rejected at configuration time, never here, so the remainder cannot go
// negative.
func SplitYield(yield decimal.Decimal, protocolFeeBps, treasuryFeeBps int64) FeeSplit {
	protocolFee := yield.Mul(decimal.NewFromInt(protocolFeeBps)).Div(bpsBase)
	treasuryFee := yield.Mul(decimal.NewFromInt(treasuryFeeBps)).Div(bpsBase)

	return FeeSplit{
		ProtocolFee:    protocolFee,
		TreasuryFee:    treasuryFee,
		DepositorYield: yield.Sub(protocolFee).Sub(treasuryFee),
	}
}

// ValidFeeBps reports whether a fee configuration is acceptable.
func ValidFeeBps(protocolFeeBps, treasuryFeeBps int64) bool {
	if protocolFeeBps < 0 || treasuryFeeBps < 0 {
		return false
	}

	return protocolFeeBps+treasuryFeeBps <= 10000
}
