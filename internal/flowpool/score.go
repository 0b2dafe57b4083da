package flowpool

import (
	"flowpool/core"

	"github.com/shopspring/decimal"
)

// RiskAdjustedScore ranks a protocol by its reported yield discounted by risk:
// yieldRateBps * (101 - riskScore) / 100. A risk score of 0 keeps full weight,
// a score near 100 is heavily discounted.
func RiskAdjustedScore(yieldRateBps, riskScore int64) decimal.Decimal {
	weight := decimal.NewFromInt(101 - riskScore)
	return decimal.NewFromInt(yieldRateBps).Mul(weight).Div(decimal.NewFromInt(100))
}

// Candidate pairs a registered protocol with its current allocation of the
// asset under consideration.
type Candidate struct {
	Protocol  *core.Protocol
	Allocated decimal.Decimal
}

// RemainingCapacity is how much more of the asset the protocol may take.
func (c Candidate) RemainingCapacity() decimal.Decimal {
	return c.Protocol.MaxCapacity.Sub(c.Allocated)
}

// SelectProtocol picks the candidate with the strictly highest risk-adjusted
// score, skipping unselectable protocols and ones without spare capacity.
// Candidates must be passed in registration order: ties resolve to the first
// candidate encountered. Returns nil when nothing qualifies.
func SelectProtocol(candidates []Candidate) *Candidate {
	var best *Candidate
	var bestScore decimal.Decimal

	for i := range candidates {
		c := &candidates[i]
		if !c.Protocol.Selectable() {
			continue
		}

		if !c.RemainingCapacity().IsPositive() {
			continue
		}

		score := RiskAdjustedScore(c.Protocol.YieldRateBps, c.Protocol.RiskScore)
		if best == nil || score.GreaterThan(bestScore) {
			best, bestScore = c, score
		}
	}

	return best
}
