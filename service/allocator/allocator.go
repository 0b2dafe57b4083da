package allocator

import (
	"context"
	"sync"
	"time"

	"flowpool/core"
	"flowpool/internal/flowpool"
	"flowpool/pkg/id"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Config allocation engine policy
type Config struct {
	// MinRebalanceInterval is the per-asset cooldown between rebalances.
	MinRebalanceInterval time.Duration
	// OpportunisticPercent is the share of idle capital (0-100) committed on
	// the post-deposit path.
	OpportunisticPercent int64
	// MaxProtocols bounds the selection scan.
	MaxProtocols int64
}

type allocatorService struct {
	db          core.Transactor
	mux         *sync.Mutex
	cfg         Config
	gate        core.IGate
	system      core.ISystemService
	assets      core.IAssetStore
	protocols   core.IProtocolStore
	allocations core.IAllocationStore
	records     core.IRecordStore
}

// New new allocation engine. mux is the process-wide mutation lock shared
// with the ledger service: one mutating call runs at a time.
func New(
	db core.Transactor,
	mux *sync.Mutex,
	cfg Config,
	gate core.IGate,
	system core.ISystemService,
	assets core.IAssetStore,
	protocols core.IProtocolStore,
	allocations core.IAllocationStore,
	records core.IRecordStore,
) core.IAllocatorService {
	return &allocatorService{
		db:          db,
		mux:         mux,
		cfg:         cfg,
		gate:        gate,
		system:      system,
		assets:      assets,
		protocols:   protocols,
		allocations: allocations,
		records:     records,
	}
}

func (s *allocatorService) Opportunistic(ctx context.Context, assetID string) (*core.Record, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.rebalance(ctx, assetID, core.TriggerOpportunistic)
}

func (s *allocatorService) DetectAndReallocate(ctx context.Context, principal, assetID string) (*core.Record, error) {
	if err := s.gate.Authorize(ctx, principal, core.CapabilityKeeper); err != nil {
		return nil, err
	}

	if paused, err := s.system.Paused(ctx); err != nil {
		return nil, err
	} else if paused {
		return nil, core.ErrSystemPaused
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	return s.rebalance(ctx, assetID, core.TriggerKeeper)
}

// rebalance runs one allocation pass. Gate misses (threshold not reached, no
// qualifying protocol, nothing allocatable) are nil no-ops on both paths; a
// cooldown miss is an error only on the keeper path, which is also the only
// path that resets the cooldown.
func (s *allocatorService) rebalance(ctx context.Context, assetID string, trigger core.AllocationTrigger) (*core.Record, error) {
	log := logger.FromContext(ctx).WithField("service", "allocator").WithField("asset", assetID)

	asset, err := s.assets.Find(ctx, assetID)
	if gorm.IsRecordNotFoundError(err) {
		return nil, core.ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}

	if !asset.IsActive {
		if trigger == core.TriggerKeeper {
			return nil, core.ErrAssetInactive
		}
		return nil, nil
	}

	idle := asset.IdleCapital()
	if !idle.GreaterThan(asset.IdleThreshold) {
		return nil, nil
	}

	if time.Since(asset.LastRebalanceAt) < s.cfg.MinRebalanceInterval {
		if trigger == core.TriggerKeeper {
			return nil, core.ErrCooldownActive
		}
		return nil, nil
	}

	best, err := s.selectProtocol(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if best == nil {
		log.Debugln("no qualifying protocol, rebalance skipped")
		return nil, nil
	}

	request := idle
	if trigger == core.TriggerOpportunistic {
		request = idle.Mul(decimal.NewFromInt(s.cfg.OpportunisticPercent)).Div(decimal.NewFromInt(100))
	}

	amount := flowpool.ClampAllocation(request, asset.AvailableLiquidity(), best.RemainingCapacity())
	if !amount.IsPositive() {
		return nil, nil
	}

	asset.TotalUtilized = asset.TotalUtilized.Add(amount)
	if trigger == core.TriggerKeeper {
		asset.LastRebalanceAt = time.Now()
	}

	allocation, err := s.allocations.Find(ctx, best.Protocol.ProtocolID, assetID)
	if err != nil {
		return nil, err
	}
	allocation.Amount = allocation.Amount.Add(amount)

	record := &core.Record{
		TraceID:    id.GenTraceID(),
		Action:     core.ActionReallocate,
		AssetID:    assetID,
		ProtocolID: best.Protocol.ProtocolID,
		Amount:     amount,
	}
	record.SetExtra(map[string]interface{}{
		"trigger": trigger,
		"source":  "available",
		"score":   flowpool.RiskAdjustedScore(best.Protocol.YieldRateBps, best.Protocol.RiskScore),
	})

	if err := s.db.Tx(func(tx *db.DB) error {
		if err := s.assets.Update(ctx, tx, asset); err != nil {
			return err
		}
		if err := s.allocations.Save(ctx, tx, allocation); err != nil {
			return err
		}
		return s.records.Create(ctx, tx, record)
	}); err != nil {
		log.WithError(err).Errorln("rebalance tx failed")
		return nil, err
	}

	if asset.TotalUtilized.GreaterThan(asset.TotalDeposited) {
		log.Panicf("rebalance broke ledger: utilized %s > deposited %s", asset.TotalUtilized, asset.TotalDeposited)
	}
	if err := flowpool.CheckCapacity(best.Protocol, allocation.Amount); err != nil {
		log.Panicln(err)
	}

	log.WithField("protocol", best.Protocol.ProtocolID).
		WithField("amount", amount).
		WithField("trigger", trigger).
		Infoln("idle capital reallocated")

	return record, nil
}

// selectProtocol loads candidates in registration order, bounded by
// MaxProtocols, and picks the strictly best risk-adjusted score.
func (s *allocatorService) selectProtocol(ctx context.Context, assetID string) (*flowpool.Candidate, error) {
	protocols, err := s.protocols.All(ctx)
	if err != nil {
		return nil, err
	}

	if int64(len(protocols)) > s.cfg.MaxProtocols {
		protocols = protocols[:s.cfg.MaxProtocols]
	}

	candidates := make([]flowpool.Candidate, 0, len(protocols))
	for _, p := range protocols {
		allocation, err := s.allocations.Find(ctx, p.ProtocolID, assetID)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, flowpool.Candidate{
			Protocol:  p,
			Allocated: allocation.Amount,
		})
	}

	return flowpool.SelectProtocol(candidates), nil
}
