package asset

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
)

type assetStore struct {
	db *db.DB
}

// New new asset store
func New(db *db.DB) core.IAssetStore {
	return &assetStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Asset{})
		if err := tx.AutoMigrate(core.Asset{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *assetStore) Create(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	return tx.Update().Create(asset).Error
}

func (s *assetStore) Find(ctx context.Context, assetID string) (*core.Asset, error) {
	var asset core.Asset
	if err := s.db.View().Where("asset_id=?", assetID).First(&asset).Error; err != nil {
		return nil, err
	}

	return &asset, nil
}

func (s *assetStore) All(ctx context.Context) ([]*core.Asset, error) {
	var assets []*core.Asset
	if err := s.db.View().Order("id").Find(&assets).Error; err != nil {
		return nil, err
	}

	return assets, nil
}

func (s *assetStore) Update(ctx context.Context, tx *db.DB, asset *core.Asset) error {
	version := asset.Version
	asset.Version++

	// column map so zero values (drained pool, deactivation) still persist
	return tx.Update().Model(core.Asset{}).
		Where("asset_id=? and version=?", asset.AssetID, version).
		Update(map[string]interface{}{
			"total_deposited":   asset.TotalDeposited,
			"total_shares":      asset.TotalShares,
			"total_utilized":    asset.TotalUtilized,
			"idle_threshold":    asset.IdleThreshold,
			"last_rebalance_at": asset.LastRebalanceAt,
			"is_active":         asset.IsActive,
			"version":           asset.Version,
		}).Error
}
