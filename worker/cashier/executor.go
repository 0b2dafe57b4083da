package cashier

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/logger"
)

// LogExecutor acknowledges transfer tasks after logging them. Custody
// integrations replace it with a real core.TransferExecutor.
type LogExecutor struct{}

func (LogExecutor) Execute(ctx context.Context, transfer *core.Transfer) error {
	logger.FromContext(ctx).WithField("worker", "cashier").
		WithField("trace", transfer.TraceID).
		WithField("opponent", transfer.OpponentID).
		WithField("asset", transfer.AssetID).
		WithField("amount", transfer.Amount).
		Infoln("transfer executed")

	return nil
}
