// Package servicetest provides in-memory store implementations so service
// tests run without a database.
package servicetest

import (
	"context"
	"sort"

	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Transactor runs fn directly; there is no rollback, which is fine since the
// tests only exercise happy-path commits and precondition failures happen
// before any store write.
type Transactor struct{}

func (Transactor) Tx(fn func(tx *db.DB) error) error {
	return fn(nil)
}

// System is a plain in-memory pause flag.
type System struct {
	IsPaused bool
}

func (s *System) Paused(ctx context.Context) (bool, error) {
	return s.IsPaused, nil
}

func (s *System) SetPause(ctx context.Context, principal string, paused bool) error {
	s.IsPaused = paused
	return nil
}

// AssetStore in-memory core.IAssetStore
type AssetStore struct {
	assets []*core.Asset
	nextID uint64
}

func (s *AssetStore) Create(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	s.nextID++
	asset.ID = s.nextID
	c := *asset
	s.assets = append(s.assets, &c)
	return nil
}

func (s *AssetStore) Find(ctx context.Context, assetID string) (*core.Asset, error) {
	for _, a := range s.assets {
		if a.AssetID == assetID {
			c := *a
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *AssetStore) All(ctx context.Context) ([]*core.Asset, error) {
	out := make([]*core.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (s *AssetStore) Update(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	for idx, a := range s.assets {
		if a.AssetID == asset.AssetID {
			asset.Version++
			c := *asset
			s.assets[idx] = &c
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// BalanceStore in-memory core.IBalanceStore
type BalanceStore struct {
	balances map[string]*core.Balance
}

func balanceKey(userID, assetID string) string {
	return userID + "/" + assetID
}

func (s *BalanceStore) Save(ctx context.Context, tx *db.DB, balance *core.Balance) error {
	if s.balances == nil {
		s.balances = make(map[string]*core.Balance)
	}
	balance.Version++
	c := *balance
	s.balances[balanceKey(balance.UserID, balance.AssetID)] = &c
	return nil
}

func (s *BalanceStore) Find(ctx context.Context, userID, assetID string) (*core.Balance, error) {
	if b, ok := s.balances[balanceKey(userID, assetID)]; ok {
		c := *b
		return &c, nil
	}
	return &core.Balance{UserID: userID, AssetID: assetID}, nil
}

func (s *BalanceStore) FindByUser(ctx context.Context, userID string) ([]*core.Balance, error) {
	var out []*core.Balance
	for _, b := range s.balances {
		if b.UserID == userID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}

func (s *BalanceStore) SumShares(ctx context.Context, assetID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, b := range s.balances {
		if b.AssetID == assetID {
			sum = sum.Add(b.Shares)
		}
	}
	return sum, nil
}

// ProtocolStore in-memory core.IProtocolStore
type ProtocolStore struct {
	protocols []*core.Protocol
	nextID    uint64
}

func (s *ProtocolStore) Create(ctx context.Context, tx *db.DB, protocol *core.Protocol) error {
	s.nextID++
	protocol.ID = s.nextID
	c := *protocol
	s.protocols = append(s.protocols, &c)
	return nil
}

func (s *ProtocolStore) Find(ctx context.Context, protocolID string) (*core.Protocol, error) {
	for _, p := range s.protocols {
		if p.ProtocolID == protocolID {
			c := *p
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *ProtocolStore) All(ctx context.Context) ([]*core.Protocol, error) {
	out := make([]*core.Protocol, 0, len(s.protocols))
	for _, p := range s.protocols {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (s *ProtocolStore) Count(ctx context.Context) (int64, error) {
	return int64(len(s.protocols)), nil
}

func (s *ProtocolStore) Update(ctx context.Context, tx *db.DB, protocol *core.Protocol) error {
	for idx, p := range s.protocols {
		if p.ProtocolID == protocol.ProtocolID {
			protocol.Version++
			c := *protocol
			s.protocols[idx] = &c
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// AllocationStore in-memory core.IAllocationStore
type AllocationStore struct {
	allocations []*core.Allocation
	nextID      uint64
}

func (s *AllocationStore) Save(ctx context.Context, tx *db.DB, allocation *core.Allocation) error {
	for idx, a := range s.allocations {
		if a.ProtocolID == allocation.ProtocolID && a.AssetID == allocation.AssetID {
			allocation.Version++
			c := *allocation
			s.allocations[idx] = &c
			return nil
		}
	}
	s.nextID++
	allocation.ID = s.nextID
	c := *allocation
	s.allocations = append(s.allocations, &c)
	return nil
}

func (s *AllocationStore) Find(ctx context.Context, protocolID, assetID string) (*core.Allocation, error) {
	for _, a := range s.allocations {
		if a.ProtocolID == protocolID && a.AssetID == assetID {
			c := *a
			return &c, nil
		}
	}
	return &core.Allocation{ProtocolID: protocolID, AssetID: assetID}, nil
}

func (s *AllocationStore) FindByProtocol(ctx context.Context, protocolID string) ([]*core.Allocation, error) {
	var out []*core.Allocation
	for _, a := range s.allocations {
		if a.ProtocolID == protocolID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *AllocationStore) FindByAsset(ctx context.Context, assetID string) ([]*core.Allocation, error) {
	var out []*core.Allocation
	for _, a := range s.allocations {
		if a.AssetID == assetID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *AllocationStore) SumByAsset(ctx context.Context, assetID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range s.allocations {
		if a.AssetID == assetID {
			sum = sum.Add(a.Amount)
		}
	}
	return sum, nil
}

// TransferStore in-memory core.ITransferStore
type TransferStore struct {
	Transfers []*core.Transfer
	nextID    uint64
}

func (s *TransferStore) Create(ctx context.Context, tx *db.DB, transfer *core.Transfer) error {
	s.nextID++
	transfer.ID = s.nextID
	c := *transfer
	s.Transfers = append(s.Transfers, &c)
	return nil
}

func (s *TransferStore) Delete(ctx context.Context, tx *db.DB, ids ...uint64) error {
	drop := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.Transfers[:0]
	for _, t := range s.Transfers {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	s.Transfers = kept
	return nil
}

func (s *TransferStore) Top(ctx context.Context, limit int) ([]*core.Transfer, error) {
	out := make([]*core.Transfer, 0, limit)
	for _, t := range s.Transfers {
		if len(out) >= limit {
			break
		}
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

// RecordStore in-memory core.IRecordStore
type RecordStore struct {
	Records []*core.Record
	nextID  uint64
}

func (s *RecordStore) Create(ctx context.Context, tx *db.DB, record *core.Record) error {
	s.nextID++
	record.ID = s.nextID
	c := *record
	s.Records = append(s.Records, &c)
	return nil
}

func (s *RecordStore) List(ctx context.Context, assetID string, limit int) ([]*core.Record, error) {
	var out []*core.Record
	for i := len(s.Records) - 1; i >= 0 && len(out) < limit; i-- {
		r := s.Records[i]
		if assetID != "" && r.AssetID != assetID {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

// ByAction returns recorded entries matching action, oldest first.
func (s *RecordStore) ByAction(action core.Action) []*core.Record {
	var out []*core.Record
	for _, r := range s.Records {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

// TreasuryStore in-memory core.ITreasuryStore
type TreasuryStore struct {
	treasuries []*core.Treasury
	nextID     uint64
}

func (s *TreasuryStore) Save(ctx context.Context, tx *db.DB, treasury *core.Treasury) error {
	for idx, t := range s.treasuries {
		if t.Account == treasury.Account && t.AssetID == treasury.AssetID {
			treasury.Version++
			c := *treasury
			s.treasuries[idx] = &c
			return nil
		}
	}
	s.nextID++
	treasury.ID = s.nextID
	c := *treasury
	s.treasuries = append(s.treasuries, &c)
	return nil
}

func (s *TreasuryStore) Find(ctx context.Context, account, assetID string) (*core.Treasury, error) {
	for _, t := range s.treasuries {
		if t.Account == account && t.AssetID == assetID {
			c := *t
			return &c, nil
		}
	}
	return &core.Treasury{Account: account, AssetID: assetID}, nil
}

func (s *TreasuryStore) FindByAccount(ctx context.Context, account string) ([]*core.Treasury, error) {
	var out []*core.Treasury
	for _, t := range s.treasuries {
		if t.Account == account {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

// GrantStore in-memory core.IGrantStore
type GrantStore struct {
	grants []*core.Grant
	nextID uint64
}

func (s *GrantStore) Save(ctx context.Context, tx *db.DB, grant *core.Grant) error {
	for _, g := range s.grants {
		if g.Principal == grant.Principal && g.Capability == grant.Capability {
			return nil
		}
	}
	s.nextID++
	grant.ID = s.nextID
	c := *grant
	s.grants = append(s.grants, &c)
	return nil
}

func (s *GrantStore) Delete(ctx context.Context, tx *db.DB, principal string, capability core.Capability) error {
	kept := s.grants[:0]
	for _, g := range s.grants {
		if g.Principal != principal || g.Capability != capability {
			kept = append(kept, g)
		}
	}
	s.grants = kept
	return nil
}

func (s *GrantStore) Find(ctx context.Context, principal string) ([]*core.Grant, error) {
	var out []*core.Grant
	for _, g := range s.grants {
		if g.Principal == principal {
			c := *g
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *GrantStore) All(ctx context.Context) ([]*core.Grant, error) {
	out := make([]*core.Grant, 0, len(s.grants))
	for _, g := range s.grants {
		c := *g
		out = append(out, &c)
	}
	return out, nil
}
