package rest

import (
	"errors"
	"net/http"

	"flowpool/core"
	"flowpool/handler/render"

	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(
	assetStore core.IAssetStore,
	balanceStore core.IBalanceStore,
	protocolStore core.IProtocolStore,
	allocationStore core.IAllocationStore,
	recordStore core.IRecordStore,
	treasuryStore core.ITreasuryStore,
	ledger core.ILedgerService,
	allocator core.IAllocatorService,
	registry core.IRegistryService,
	system core.ISystemService,
	gate core.IGate,
) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/assets", allAssetsHandler(assetStore, balanceStore))
	router.Get("/balances", balancesHandler(assetStore, balanceStore))
	router.Get("/protocols", allProtocolsHandler(protocolStore))
	router.Get("/allocations", allocationsHandler(allocationStore))
	router.Get("/records", recordsHandler(recordStore))
	router.Get("/treasury", treasuryHandler(treasuryStore))
	router.Get("/system", systemHandler(system))

	router.Post("/deposits", depositHandler(ledger))
	router.Post("/withdrawals", withdrawHandler(ledger))
	router.Post("/accesses", accessHandler(ledger))
	router.Post("/returns", returnHandler(ledger))
	router.Post("/emergency-withdrawals", emergencyWithdrawHandler(ledger))

	router.Post("/rebalances", rebalanceHandler(allocator))
	router.Post("/pause", pauseHandler(system))

	router.Post("/assets", addAssetHandler(registry))
	router.Post("/assets/status", assetStatusHandler(registry))
	router.Post("/assets/threshold", idleThresholdHandler(registry))
	router.Post("/protocols", registerProtocolHandler(registry))
	router.Post("/protocols/status", protocolStatusHandler(registry))
	router.Post("/protocols/rates", protocolRatesHandler(registry))

	router.Post("/grants", grantHandler(gate))
	router.Post("/revocations", revokeHandler(gate))

	return router
}

// principalHeader carries the caller identity; capability checks run inside
// the services against it.
const principalHeader = "X-Principal"

func principal(r *http.Request) string {
	return r.Header.Get(principalHeader)
}

func opError(w http.ResponseWriter, err error) {
	var code core.ErrorCode
	if errors.As(err, &code) {
		status := http.StatusBadRequest
		if code == core.ErrUnauthorized {
			status = http.StatusUnauthorized
		}
		render.Error(w, status, int(code), code)
		return
	}

	render.BadRequest(w, err)
}
