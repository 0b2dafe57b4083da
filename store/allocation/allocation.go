package allocation

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type allocationStore struct {
	db *db.DB
}

// New new allocation store
func New(db *db.DB) core.IAllocationStore {
	return &allocationStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Allocation{})
		if err := tx.AutoMigrate(core.Allocation{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *allocationStore) Save(ctx context.Context, tx *db.DB, allocation *core.Allocation) error {
	version := allocation.Version
	allocation.Version++

	if allocation.ID == 0 {
		return tx.Update().Create(allocation).Error
	}

	// column map so a fully returned allocation persists its zero amount
	return tx.Update().Model(core.Allocation{}).
		Where("id=? and version=?", allocation.ID, version).
		Update(map[string]interface{}{
			"amount":  allocation.Amount,
			"version": allocation.Version,
		}).Error
}

// Find returns the allocation row, or a zero-amount row when the protocol has
// never been assigned this asset.
func (s *allocationStore) Find(ctx context.Context, protocolID, assetID string) (*core.Allocation, error) {
	var allocation core.Allocation
	err := s.db.View().Where("protocol_id=? and asset_id=?", protocolID, assetID).First(&allocation).Error
	if gorm.IsRecordNotFoundError(err) {
		return &core.Allocation{
			ProtocolID: protocolID,
			AssetID:    assetID,
			Amount:     decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &allocation, nil
}

func (s *allocationStore) FindByProtocol(ctx context.Context, protocolID string) ([]*core.Allocation, error) {
	var allocations []*core.Allocation
	if err := s.db.View().Where("protocol_id=?", protocolID).Find(&allocations).Error; err != nil {
		return nil, err
	}

	return allocations, nil
}

func (s *allocationStore) FindByAsset(ctx context.Context, assetID string) ([]*core.Allocation, error) {
	var allocations []*core.Allocation
	if err := s.db.View().Where("asset_id=?", assetID).Find(&allocations).Error; err != nil {
		return nil, err
	}

	return allocations, nil
}

func (s *allocationStore) SumByAsset(ctx context.Context, assetID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := s.db.View().Model(core.Allocation{}).
		Select("coalesce(sum(amount), 0)").
		Where("asset_id=?", assetID).
		Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return sum, nil
}
