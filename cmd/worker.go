package cmd

import (
	"sync"

	"flowpool/worker"
	"flowpool/worker/cashier"
	"flowpool/worker/rebalancer"

	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "flowpool job worker",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		database := provideDatabase()
		defer database.Close()

		svcs := provideServices(database)

		batch, _ := cmd.Flags().GetInt("cashier.batch")
		capacity, _ := cmd.Flags().GetInt64("cashier.capacity")
		spec, _ := cmd.Flags().GetString("rebalancer.spec")

		job := rebalancer.New(rebalancer.Config{
			Spec:      spec,
			Location:  cfg.App.Location,
			Principal: cfg.Allocation.KeeperPrincipal,
		}, provideAssetStore(database), svcs.allocator)

		if err := job.Start(); err != nil {
			log.WithError(err).Fatal("start rebalancer")
		}
		defer job.Stop()

		workers := []worker.Worker{
			cashier.New(database, provideTransferStore(database), provideTransferExecutor(), cashier.Config{
				Batch:    batch,
				Capacity: capacity,
			}),
		}

		wg := sync.WaitGroup{}
		for _, w := range workers {
			wg.Add(1)

			go func(worker worker.Worker) {
				defer wg.Done()
				_ = worker.Run(ctx)
			}(w)
		}

		wg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().Int("cashier.batch", 100, "custom batch for worker cashier")
	workerCmd.Flags().Int64("cashier.capacity", 1, "custom capacity for worker cashier")
	workerCmd.Flags().String("rebalancer.spec", "@every 1m", "cron spec for the rebalancer")
}
