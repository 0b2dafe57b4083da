package yield

import (
	"context"

	"flowpool/config"
	"flowpool/core"
	"flowpool/internal/flowpool"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

type yieldService struct {
	fees       config.Fees
	treasuries core.ITreasuryStore
}

// New new yield distributor. Fee bps are validated at config load; the
// distributor trusts them.
func New(fees config.Fees, treasuries core.ITreasuryStore) core.IYieldService {
	return &yieldService{
		fees:       fees,
		treasuries: treasuries,
	}
}

// Distribute splits yieldAmount, credits the fee balances and compounds the
// depositor share into the asset pool. It mutates asset in place and runs
// inside the caller's transaction; the caller persists the asset row.
func (s *yieldService) Distribute(ctx context.Context, tx *db.DB, asset *core.Asset, protocolID string, yieldAmount decimal.Decimal) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("service", "yield")

	split := flowpool.SplitYield(yieldAmount, s.fees.ProtocolFeeBps, s.fees.TreasuryFeeBps)

	if split.ProtocolFee.IsPositive() {
		if err := s.credit(ctx, tx, protocolID, asset.AssetID, split.ProtocolFee); err != nil {
			return decimal.Zero, err
		}
	}

	if split.TreasuryFee.IsPositive() {
		if err := s.credit(ctx, tx, core.TreasuryAccount, asset.AssetID, split.TreasuryFee); err != nil {
			return decimal.Zero, err
		}
	}

	// pool-wide compounding: deposited grows, shares stay, price rises
	asset.TotalDeposited = asset.TotalDeposited.Add(split.DepositorYield)

	log.WithField("asset", asset.AssetID).
		WithField("yield", yieldAmount).
		WithField("depositor_yield", split.DepositorYield).
		Debugln("yield distributed")

	return split.DepositorYield, nil
}

func (s *yieldService) credit(ctx context.Context, tx *db.DB, account, assetID string, amount decimal.Decimal) error {
	treasury, err := s.treasuries.Find(ctx, account, assetID)
	if err != nil {
		return err
	}

	treasury.Amount = treasury.Amount.Add(amount)
	return s.treasuries.Save(ctx, tx, treasury)
}
