package cashier

import (
	"context"
	"errors"

	"flowpool/core"
	"flowpool/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Cashier executes pending transfer tasks. Tasks are written inside the
// ledger transaction that caused them, so everything the executor sees is
// already committed state.
type Cashier struct {
	worker.TickWorker
	db        core.Transactor
	transfers core.ITransferStore
	executor  core.TransferExecutor
	cfg       Config
}

type Config struct {
	Batch    int   `json:"batch" valid:"required"`
	Capacity int64 `json:"capacity" valid:"required"`
}

// New new cashier
func New(
	db core.Transactor,
	transfers core.ITransferStore,
	executor core.TransferExecutor,
	cfg Config,
) *Cashier {
	return &Cashier{
		db:        db,
		transfers: transfers,
		executor:  executor,
		cfg:       cfg,
	}
}

// Run run worker
func (w *Cashier) Run(ctx context.Context) error {
	f := w.sync
	if w.cfg.Capacity > 1 {
		f = w.parallel(w.cfg.Capacity)
	}

	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx, f)
	})
}

func (w *Cashier) onWork(ctx context.Context, f func(context.Context, []*core.Transfer) error) error {
	log := logger.FromContext(ctx).WithField("worker", "cashier")

	transfers, err := w.transfers.Top(ctx, w.cfg.Batch)
	if err != nil {
		log.WithError(err).Errorln("list transfers")
		return err
	}

	if len(transfers) == 0 {
		return errors.New("EOF")
	}

	return f(ctx, transfers)
}

func (w *Cashier) sync(ctx context.Context, transfers []*core.Transfer) error {
	for _, transfer := range transfers {
		if err := w.handleTransfer(ctx, transfer); err != nil {
			return err
		}
	}

	return nil
}

func (w *Cashier) parallel(capacity int64) func(ctx context.Context, transfers []*core.Transfer) error {
	sem := semaphore.NewWeighted(capacity)

	return func(ctx context.Context, transfers []*core.Transfer) error {
		g := errgroup.Group{}

		for idx := range transfers {
			transfer := transfers[idx]

			if err := sem.Acquire(ctx, 1); err != nil {
				return g.Wait()
			}

			g.Go(func() error {
				defer sem.Release(1)
				return w.handleTransfer(ctx, transfer)
			})
		}

		return g.Wait()
	}
}

func (w *Cashier) handleTransfer(ctx context.Context, transfer *core.Transfer) error {
	log := logger.FromContext(ctx).WithField("worker", "cashier")

	if err := w.executor.Execute(ctx, transfer); err != nil {
		log.WithError(err).WithField("trace", transfer.TraceID).Errorln("execute transfer")
		return err
	}

	// the task row is the only pending marker; drop it once executed
	return w.db.Tx(func(tx *db.DB) error {
		return w.transfers.Delete(ctx, tx, transfer.ID)
	})
}
