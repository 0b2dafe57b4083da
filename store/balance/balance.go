package balance

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type balanceStore struct {
	db *db.DB
}

// New new balance store
func New(db *db.DB) core.IBalanceStore {
	return &balanceStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Balance{})
		if err := tx.AutoMigrate(core.Balance{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *balanceStore) Save(ctx context.Context, tx *db.DB, balance *core.Balance) error {
	version := balance.Version
	balance.Version++

	if version == 0 {
		return tx.Update().
			Where("user_id=? and asset_id=?", balance.UserID, balance.AssetID).
			FirstOrCreate(balance).Error
	}

	return tx.Update().Model(core.Balance{}).
		Where("user_id=? and asset_id=? and version=?", balance.UserID, balance.AssetID, version).
		Update(map[string]interface{}{
			"shares":  balance.Shares,
			"version": balance.Version,
		}).Error
}

// Find returns the balance row, or a fresh zero-share row when the user has
// never deposited this asset; rows are created lazily on first save.
func (s *balanceStore) Find(ctx context.Context, userID, assetID string) (*core.Balance, error) {
	var balance core.Balance
	err := s.db.View().Where("user_id=? and asset_id=?", userID, assetID).First(&balance).Error
	if gorm.IsRecordNotFoundError(err) {
		return &core.Balance{
			UserID:  userID,
			AssetID: assetID,
			Shares:  decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &balance, nil
}

func (s *balanceStore) FindByUser(ctx context.Context, userID string) ([]*core.Balance, error) {
	var balances []*core.Balance
	if err := s.db.View().Where("user_id=?", userID).Find(&balances).Error; err != nil {
		return nil, err
	}

	return balances, nil
}

func (s *balanceStore) SumShares(ctx context.Context, assetID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := s.db.View().Model(core.Balance{}).
		Select("coalesce(sum(shares), 0)").
		Where("asset_id=?", assetID).
		Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return sum, nil
}
