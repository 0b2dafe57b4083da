package flowpool

import "github.com/shopspring/decimal"

// ClampAllocation caps a requested allocation by the asset's available
// liquidity and the protocol's remaining capacity. Negative inputs clamp to
// zero so callers can treat the result as the final allocatable amount.
func ClampAllocation(request, available, remainingCapacity decimal.Decimal) decimal.Decimal {
	amount := request
	if available.LessThan(amount) {
		amount = available
	}
	if remainingCapacity.LessThan(amount) {
		amount = remainingCapacity
	}

	if amount.IsNegative() {
		return decimal.Zero
	}

	return amount
}
