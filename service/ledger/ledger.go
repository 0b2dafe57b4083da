package ledger

import (
	"context"
	"sync"

	"flowpool/core"
	"flowpool/internal/flowpool"
	"flowpool/pkg/id"
	"flowpool/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

const sharePrecision = 8

type ledgerService struct {
	db          core.Transactor
	mux         *sync.Mutex
	gate        core.IGate
	system      core.ISystemService
	assets      core.IAssetStore
	balances    core.IBalanceStore
	protocols   core.IProtocolStore
	allocations core.IAllocationStore
	transfers   core.ITransferStore
	records     core.IRecordStore
	yield       core.IYieldService
	allocator   core.IAllocatorService
}

// New new ledger service. mux is the process-wide mutation lock shared with
// the allocator: every mutating call runs serialized, start to finish.
func New(
	db core.Transactor,
	mux *sync.Mutex,
	gate core.IGate,
	system core.ISystemService,
	assets core.IAssetStore,
	balances core.IBalanceStore,
	protocols core.IProtocolStore,
	allocations core.IAllocationStore,
	transfers core.ITransferStore,
	records core.IRecordStore,
	yield core.IYieldService,
	allocator core.IAllocatorService,
) core.ILedgerService {
	return &ledgerService{
		db:          db,
		mux:         mux,
		gate:        gate,
		system:      system,
		assets:      assets,
		balances:    balances,
		protocols:   protocols,
		allocations: allocations,
		transfers:   transfers,
		records:     records,
		yield:       yield,
		allocator:   allocator,
	}
}

func (s *ledgerService) Deposit(ctx context.Context, principal, assetID, userID string, amount decimal.Decimal) (*core.Record, error) {
	log := logger.FromContext(ctx).WithField("service", "ledger")

	if err := s.guard(ctx, principal, core.CapabilityProtocol); err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	if userID == "" {
		return nil, core.ErrInvalidPrincipal
	}

	record, err := s.deposit(ctx, assetID, userID, amount)
	if err != nil {
		return nil, err
	}

	// opportunistic rebalance rides on the deposit but must not fail it
	if _, err := s.allocator.Opportunistic(ctx, assetID); err != nil {
		log.WithError(err).WithField("asset", assetID).
			Warningln("opportunistic rebalance skipped")
	}

	return record, nil
}

func (s *ledgerService) deposit(ctx context.Context, assetID, userID string, amount decimal.Decimal) (*core.Record, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if !asset.IsActive {
		return nil, core.ErrAssetInactive
	}

	shares := amount.Div(asset.SharePrice()).Truncate(sharePrecision)
	if !shares.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	balance, err := s.balances.Find(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}

	balance.Shares = balance.Shares.Add(shares)
	asset.TotalShares = asset.TotalShares.Add(shares)
	asset.TotalDeposited = asset.TotalDeposited.Add(amount)

	record := &core.Record{
		TraceID: id.GenTraceID(),
		Action:  core.ActionDeposit,
		AssetID: assetID,
		UserID:  userID,
		Amount:  amount,
	}
	record.SetExtra(map[string]interface{}{"shares": shares})

	if err := s.db.Tx(func(tx *db.DB) error {
		if err := s.balances.Save(ctx, tx, balance); err != nil {
			return err
		}
		if err := s.assets.Update(ctx, tx, asset); err != nil {
			return err
		}
		return s.records.Create(ctx, tx, record)
	}); err != nil {
		return nil, err
	}

	s.audit(ctx, asset)
	return record, nil
}

func (s *ledgerService) Withdraw(ctx context.Context, principal, assetID, userID string, amount decimal.Decimal) (*core.Record, error) {
	if err := s.guard(ctx, principal, core.CapabilityProtocol); err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	// the share cost rounds up, so a dust withdrawal always burns at least
	// one share unit and a holder of zero shares cannot extract value
	shares := number.Ceil(amount.Div(asset.SharePrice()), sharePrecision)

	balance, err := s.balances.Find(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}

	if balance.Shares.LessThan(shares) {
		return nil, core.ErrInsufficientBalance
	}

	// capital allocated to protocols is not withdrawable
	if asset.AvailableLiquidity().LessThan(amount) {
		return nil, core.ErrInsufficientLiquidity
	}

	balance.Shares = balance.Shares.Sub(shares)
	asset.TotalShares = asset.TotalShares.Sub(shares)
	asset.TotalDeposited = asset.TotalDeposited.Sub(amount)

	record := &core.Record{
		TraceID: id.GenTraceID(),
		Action:  core.ActionWithdraw,
		AssetID: assetID,
		UserID:  userID,
		Amount:  amount,
	}
	record.SetExtra(map[string]interface{}{"shares": shares})

	// internal state is fully updated before the payout task exists; the
	// cashier executes it only after this tx committed
	if err := s.db.Tx(func(tx *db.DB) error {
		if err := s.balances.Save(ctx, tx, balance); err != nil {
			return err
		}
		if err := s.assets.Update(ctx, tx, asset); err != nil {
			return err
		}
		if err := s.records.Create(ctx, tx, record); err != nil {
			return err
		}
		return s.transfers.Create(ctx, tx, &core.Transfer{
			TraceID:    id.UUIDByName(record.TraceID, "payout"),
			OpponentID: userID,
			AssetID:    assetID,
			Amount:     amount,
			Memo:       string(core.ActionWithdraw),
		})
	}); err != nil {
		return nil, err
	}

	s.audit(ctx, asset)
	return record, nil
}

func (s *ledgerService) Access(ctx context.Context, principal, protocolID, assetID, userID string, amount decimal.Decimal) (*core.Record, error) {
	if err := s.guard(ctx, principal, core.CapabilityProtocol); err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	protocol, err := s.findProtocol(ctx, protocolID)
	if err != nil {
		return nil, err
	}

	if !protocol.IsActive {
		return nil, core.ErrProtocolInactive
	}

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if asset.AvailableLiquidity().LessThan(amount) {
		return nil, core.ErrInsufficientLiquidity
	}

	allocation, err := s.allocations.Find(ctx, protocolID, assetID)
	if err != nil {
		return nil, err
	}

	if allocation.Amount.Add(amount).GreaterThan(protocol.MaxCapacity) {
		return nil, core.ErrCapacityExceeded
	}

	asset.TotalUtilized = asset.TotalUtilized.Add(amount)
	allocation.Amount = allocation.Amount.Add(amount)

	record := &core.Record{
		TraceID:    id.GenTraceID(),
		Action:     core.ActionAccess,
		AssetID:    assetID,
		UserID:     userID,
		ProtocolID: protocolID,
		Amount:     amount,
	}

	if err := s.db.Tx(func(tx *db.DB) error {
		if err := s.assets.Update(ctx, tx, asset); err != nil {
			return err
		}
		if err := s.allocations.Save(ctx, tx, allocation); err != nil {
			return err
		}
		return s.records.Create(ctx, tx, record)
	}); err != nil {
		return nil, err
	}

	s.audit(ctx, asset)
	return record, nil
}

func (s *ledgerService) Return(ctx context.Context, principal, protocolID, assetID, userID string, amount, yieldAmount decimal.Decimal) (*core.Record, error) {
	if err := s.guard(ctx, principal, core.CapabilityProtocol); err != nil {
		return nil, err
	}

	if amount.IsNegative() || yieldAmount.IsNegative() {
		return nil, core.ErrInvalidAmount
	}

	if amount.IsZero() && yieldAmount.IsZero() {
		return nil, core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, err := s.findProtocol(ctx, protocolID); err != nil {
		return nil, err
	}

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	allocation, err := s.allocations.Find(ctx, protocolID, assetID)
	if err != nil {
		return nil, err
	}

	if allocation.Amount.LessThan(amount) {
		return nil, core.ErrInsufficientAllocation
	}

	allocation.Amount = allocation.Amount.Sub(amount)
	asset.TotalUtilized = asset.TotalUtilized.Sub(amount)

	record := &core.Record{
		TraceID:    id.GenTraceID(),
		Action:     core.ActionReturn,
		AssetID:    assetID,
		UserID:     userID,
		ProtocolID: protocolID,
		Amount:     amount,
	}

	if err := s.db.Tx(func(tx *db.DB) error {
		if yieldAmount.IsPositive() {
			depositorYield, err := s.yield.Distribute(ctx, tx, asset, protocolID, yieldAmount)
			if err != nil {
				return err
			}

			yieldRecord := &core.Record{
				TraceID:    id.UUIDByName(record.TraceID, "yield"),
				Action:     core.ActionYield,
				AssetID:    assetID,
				ProtocolID: protocolID,
				Amount:     yieldAmount,
			}
			yieldRecord.SetExtra(map[string]interface{}{"depositor_yield": depositorYield})
			if err := s.records.Create(ctx, tx, yieldRecord); err != nil {
				return err
			}
		}

		if err := s.allocations.Save(ctx, tx, allocation); err != nil {
			return err
		}
		if err := s.assets.Update(ctx, tx, asset); err != nil {
			return err
		}
		return s.records.Create(ctx, tx, record)
	}); err != nil {
		return nil, err
	}

	s.audit(ctx, asset)
	return record, nil
}

// EmergencyWithdraw drains pool funds for crisis recovery. It skips the pause
// gate and user balances on purpose; if the remaining pool no longer covers
// outstanding allocations the asset is force-deactivated, which also suspends
// its closed-system audit.
func (s *ledgerService) EmergencyWithdraw(ctx context.Context, principal, assetID, to string, amount decimal.Decimal) (*core.Record, error) {
	if err := s.gate.Authorize(ctx, principal, core.CapabilityAdmin); err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	if to == "" {
		return nil, core.ErrInvalidPrincipal
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if asset.TotalDeposited.LessThan(amount) {
		return nil, core.ErrInsufficientLiquidity
	}

	asset.TotalDeposited = asset.TotalDeposited.Sub(amount)

	deactivated := false
	if asset.TotalUtilized.GreaterThan(asset.TotalDeposited) && asset.IsActive {
		asset.IsActive = false
		deactivated = true
	}

	record := &core.Record{
		TraceID: id.GenTraceID(),
		Action:  core.ActionEmergency,
		AssetID: assetID,
		UserID:  to,
		Amount:  amount,
	}
	record.SetExtra(map[string]interface{}{"deactivated": deactivated})

	if err := s.db.Tx(func(tx *db.DB) error {
		if err := s.assets.Update(ctx, tx, asset); err != nil {
			return err
		}
		if err := s.records.Create(ctx, tx, record); err != nil {
			return err
		}
		return s.transfers.Create(ctx, tx, &core.Transfer{
			TraceID:    id.UUIDByName(record.TraceID, "payout"),
			OpponentID: to,
			AssetID:    assetID,
			Amount:     amount,
			Memo:       string(core.ActionEmergency),
		})
	}); err != nil {
		return nil, err
	}

	if deactivated {
		logger.FromContext(ctx).WithField("service", "ledger").
			WithField("asset", assetID).
			Warningln("emergency withdraw left utilized above deposited, asset deactivated")
	}

	s.audit(ctx, asset)
	return record, nil
}

// guard runs the capability and pause preconditions shared by the regular
// mutating operations.
func (s *ledgerService) guard(ctx context.Context, principal string, capability core.Capability) error {
	if err := s.gate.Authorize(ctx, principal, capability); err != nil {
		return err
	}

	paused, err := s.system.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return core.ErrSystemPaused
	}

	return nil
}

func (s *ledgerService) findAsset(ctx context.Context, assetID string) (*core.Asset, error) {
	asset, err := s.assets.Find(ctx, assetID)
	if gorm.IsRecordNotFoundError(err) {
		return nil, core.ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}

	return asset, nil
}

func (s *ledgerService) findProtocol(ctx context.Context, protocolID string) (*core.Protocol, error) {
	protocol, err := s.protocols.Find(ctx, protocolID)
	if gorm.IsRecordNotFoundError(err) {
		return nil, core.ErrProtocolNotFound
	}
	if err != nil {
		return nil, err
	}

	return protocol, nil
}

// audit re-checks the closed-system invariants after commit. A violation on
// an active asset is an implementation bug and panics; emergency-deactivated
// assets are exempt.
func (s *ledgerService) audit(ctx context.Context, asset *core.Asset) {
	log := logger.FromContext(ctx).WithField("service", "ledger")

	sumShares, err := s.balances.SumShares(ctx, asset.AssetID)
	if err != nil {
		log.WithError(err).Errorln("audit: sum shares")
		return
	}

	sumAllocations, err := s.allocations.SumByAsset(ctx, asset.AssetID)
	if err != nil {
		log.WithError(err).Errorln("audit: sum allocations")
		return
	}

	if err := flowpool.Audit(asset, sumShares, sumAllocations); err != nil {
		if asset.IsActive {
			log.Panicln(err)
		}

		log.WithError(err).Warningln("audit: inactive asset out of balance")
	}
}
