package registry

import (
	"context"
	"sync"
	"time"

	"flowpool/core"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type registryService struct {
	db           core.Transactor
	mux          *sync.Mutex
	maxProtocols int64
	gate         core.IGate
	system       core.ISystemService
	assets       core.IAssetStore
	protocols    core.IProtocolStore
}

// New new registry service
func New(
	db core.Transactor,
	mux *sync.Mutex,
	maxProtocols int64,
	gate core.IGate,
	system core.ISystemService,
	assets core.IAssetStore,
	protocols core.IProtocolStore,
) core.IRegistryService {
	return &registryService{
		db:           db,
		mux:          mux,
		maxProtocols: maxProtocols,
		gate:         gate,
		system:       system,
		assets:       assets,
		protocols:    protocols,
	}
}

func (s *registryService) AddAsset(ctx context.Context, principal, assetID, symbol string, idleThreshold decimal.Decimal) (*core.Asset, error) {
	if err := s.guard(ctx, principal); err != nil {
		return nil, err
	}

	if assetID == "" {
		return nil, core.ErrAssetNotFound
	}

	if idleThreshold.IsNegative() {
		return nil, core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, err := s.assets.Find(ctx, assetID); err == nil {
		return nil, core.ErrAssetExists
	} else if !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}

	asset := &core.Asset{
		AssetID:       assetID,
		Symbol:        symbol,
		IdleThreshold: idleThreshold,
		IsActive:      true,
		// epoch start so the first keeper rebalance is not held by cooldown
		LastRebalanceAt: time.Unix(0, 0),
	}

	if err := s.db.Tx(func(tx *db.DB) error {
		return s.assets.Create(ctx, tx, asset)
	}); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithField("service", "registry").
		WithField("asset", assetID).
		Infoln("asset listed")

	return asset, nil
}

func (s *registryService) SetAssetStatus(ctx context.Context, principal, assetID string, active bool) error {
	if err := s.guard(ctx, principal); err != nil {
		return err
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return err
	}

	if asset.IsActive == active {
		return nil
	}

	asset.IsActive = active
	return s.db.Tx(func(tx *db.DB) error {
		return s.assets.Update(ctx, tx, asset)
	})
}

func (s *registryService) SetIdleThreshold(ctx context.Context, principal, assetID string, threshold decimal.Decimal) error {
	if err := s.guard(ctx, principal); err != nil {
		return err
	}

	if threshold.IsNegative() {
		return core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return err
	}

	asset.IdleThreshold = threshold
	return s.db.Tx(func(tx *db.DB) error {
		return s.assets.Update(ctx, tx, asset)
	})
}

func (s *registryService) RegisterProtocol(ctx context.Context, principal, protocolID, name string, yieldRateBps, riskScore int64, maxCapacity decimal.Decimal) (*core.Protocol, error) {
	if err := s.guard(ctx, principal); err != nil {
		return nil, err
	}

	if protocolID == "" {
		return nil, core.ErrProtocolNotFound
	}

	if riskScore < 0 || riskScore > core.MaxRiskScore {
		return nil, core.ErrInvalidRiskScore
	}

	if yieldRateBps < 0 {
		return nil, core.ErrInvalidAmount
	}

	if !maxCapacity.IsPositive() {
		return nil, core.ErrInvalidCapacity
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, err := s.protocols.Find(ctx, protocolID); err == nil {
		return nil, core.ErrProtocolExists
	} else if !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}

	count, err := s.protocols.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count >= s.maxProtocols {
		return nil, core.ErrTooManyProtocols
	}

	protocol := &core.Protocol{
		ProtocolID:   protocolID,
		Name:         name,
		IsActive:     true,
		YieldRateBps: yieldRateBps,
		RiskScore:    riskScore,
		MaxCapacity:  maxCapacity,
	}

	if err := s.db.Tx(func(tx *db.DB) error {
		return s.protocols.Create(ctx, tx, protocol)
	}); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithField("service", "registry").
		WithField("protocol", protocolID).
		Infoln("protocol registered")

	return protocol, nil
}

func (s *registryService) SetProtocolStatus(ctx context.Context, principal, protocolID string, active bool) error {
	if err := s.guard(ctx, principal); err != nil {
		return err
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	protocol, err := s.findProtocol(ctx, protocolID)
	if err != nil {
		return err
	}

	if protocol.IsActive == active {
		return nil
	}

	protocol.IsActive = active
	if active {
		// rates may be stale after downtime; hold the entry out of selection
		// until the next rate refresh
		protocol.NeedsRefresh = true
	}

	return s.db.Tx(func(tx *db.DB) error {
		return s.protocols.Update(ctx, tx, protocol)
	})
}

func (s *registryService) UpdateProtocolRates(ctx context.Context, principal, protocolID string, yieldRateBps, riskScore int64) error {
	if err := s.gate.Authorize(ctx, principal, core.CapabilityAdmin); err != nil {
		if err := s.gate.Authorize(ctx, principal, core.CapabilityKeeper); err != nil {
			return err
		}
	}

	if paused, err := s.system.Paused(ctx); err != nil {
		return err
	} else if paused {
		return core.ErrSystemPaused
	}

	if riskScore < 0 || riskScore > core.MaxRiskScore {
		return core.ErrInvalidRiskScore
	}

	if yieldRateBps < 0 {
		return core.ErrInvalidAmount
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	protocol, err := s.findProtocol(ctx, protocolID)
	if err != nil {
		return err
	}

	protocol.YieldRateBps = yieldRateBps
	protocol.RiskScore = riskScore
	protocol.NeedsRefresh = false

	return s.db.Tx(func(tx *db.DB) error {
		return s.protocols.Update(ctx, tx, protocol)
	})
}

func (s *registryService) guard(ctx context.Context, principal string) error {
	if err := s.gate.Authorize(ctx, principal, core.CapabilityAdmin); err != nil {
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

func (s *registryService) findAsset(ctx context.Context, assetID string) (*core.Asset, error) {
	asset, err := s.assets.Find(ctx, assetID)
	if gorm.IsRecordNotFoundError(err) {
		return nil, core.ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}

	return asset, nil
}

func (s *registryService) findProtocol(ctx context.Context, protocolID string) (*core.Protocol, error) {
	protocol, err := s.protocols.Find(ctx, protocolID)
	if gorm.IsRecordNotFoundError(err) {
		return nil, core.ErrProtocolNotFound
	}
	if err != nil {
		return nil, err
	}

	return protocol, nil
}
