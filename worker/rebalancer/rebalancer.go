package rebalancer

import (
	"context"
	"time"

	"flowpool/core"
	"flowpool/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Rebalancer is the keeper automation. On each cron pass it asks the
// allocation engine to reallocate every active asset; cooldown misses are
// expected and logged at debug only.
type Rebalancer struct {
	worker.BaseJob
	cfg       Config
	assets    core.IAssetStore
	allocator core.IAllocatorService
}

type Config struct {
	Spec      string `json:"spec"`
	Location  string `json:"location"`
	Principal string `json:"principal" valid:"required"`
}

// New new rebalancer worker
func New(cfg Config, assets core.IAssetStore, allocator core.IAllocatorService) *Rebalancer {
	job := Rebalancer{
		cfg:       cfg,
		assets:    assets,
		allocator: allocator,
	}

	l, _ := time.LoadLocation(cfg.Location)
	job.Cron = cron.New(cron.WithLocation(l))

	spec := cfg.Spec
	if spec == "" {
		spec = "@every 1m"
	}
	_, _ = job.Cron.AddFunc(spec, job.Run)

	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

func (w *Rebalancer) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "rebalancer")

	assets, err := w.assets.All(ctx)
	if err != nil {
		log.WithError(err).Errorln("fetch assets")
		return err
	}

	for _, asset := range assets {
		if !asset.IsActive {
			continue
		}

		record, err := w.allocator.DetectAndReallocate(ctx, w.cfg.Principal, asset.AssetID)
		switch err {
		case nil:
			if record != nil {
				log.WithField("asset", asset.AssetID).
					WithField("protocol", record.ProtocolID).
					WithField("amount", record.Amount).
					Infoln("rebalanced")
			}
		case core.ErrCooldownActive:
			log.WithField("asset", asset.AssetID).Debugln("cooldown active")
		case core.ErrSystemPaused:
			log.Debugln("system paused, pass skipped")
			return nil
		default:
			log.WithError(err).WithField("asset", asset.AssetID).Errorln("rebalance")
		}
	}

	return nil
}
