package cmd

import (
	"sync"
	"time"

	"flowpool/core"
	allocatorservice "flowpool/service/allocator"
	gateservice "flowpool/service/gate"
	ledgerservice "flowpool/service/ledger"
	registryservice "flowpool/service/registry"
	systemservice "flowpool/service/system"
	yieldservice "flowpool/service/yield"
	"flowpool/store/allocation"
	"flowpool/store/asset"
	"flowpool/store/balance"
	"flowpool/store/capability"
	"flowpool/store/protocol"
	"flowpool/store/record"
	"flowpool/store/transfer"
	"flowpool/store/treasury"
	"flowpool/worker/cashier"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

// ---------------store-----------------------------------------

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideAssetStore(db *db.DB) core.IAssetStore {
	return asset.New(db)
}

func provideBalanceStore(db *db.DB) core.IBalanceStore {
	return balance.New(db)
}

func provideProtocolStore(db *db.DB) core.IProtocolStore {
	return protocol.New(db)
}

func provideAllocationStore(db *db.DB) core.IAllocationStore {
	return allocation.New(db)
}

func provideTransferStore(db *db.DB) core.ITransferStore {
	return transfer.New(db)
}

func provideRecordStore(db *db.DB) core.IRecordStore {
	return record.New(db)
}

func provideTreasuryStore(db *db.DB) core.ITreasuryStore {
	return treasury.New(db)
}

func provideGrantStore(db *db.DB) core.IGrantStore {
	return capability.New(db)
}

// ------------------service------------------------------------

// services is the wired service graph. The mutation mutex is shared by every
// service that writes ledger state.
type services struct {
	gate      core.IGate
	system    core.ISystemService
	yield     core.IYieldService
	allocator core.IAllocatorService
	ledger    core.ILedgerService
	registry  core.IRegistryService
}

func provideServices(database *db.DB) *services {
	mux := &sync.Mutex{}

	assets := provideAssetStore(database)
	balances := provideBalanceStore(database)
	protocols := provideProtocolStore(database)
	allocations := provideAllocationStore(database)
	transfers := provideTransferStore(database)
	records := provideRecordStore(database)
	treasuries := provideTreasuryStore(database)

	properties := providePropertyStore(database)
	gate := gateservice.New(database, provideGrantStore(database), &cfg.Genesis,
		systemservice.NewPauseReader(properties))
	system := systemservice.New(gate, properties)
	yield := yieldservice.New(cfg.Fees, treasuries)

	allocator := allocatorservice.New(database, mux, allocatorservice.Config{
		MinRebalanceInterval: time.Duration(cfg.Allocation.MinRebalanceSeconds) * time.Second,
		OpportunisticPercent: *cfg.Allocation.OpportunisticPercent,
		MaxProtocols:         cfg.Allocation.MaxProtocols,
	}, gate, system, assets, protocols, allocations, records)

	ledger := ledgerservice.New(database, mux, gate, system,
		assets, balances, protocols, allocations, transfers, records,
		yield, allocator)

	registry := registryservice.New(database, mux, cfg.Allocation.MaxProtocols,
		gate, system, assets, protocols)

	return &services{
		gate:      gate,
		system:    system,
		yield:     yield,
		allocator: allocator,
		ledger:    ledger,
		registry:  registry,
	}
}

func provideTransferExecutor() core.TransferExecutor {
	return cashier.LogExecutor{}
}
