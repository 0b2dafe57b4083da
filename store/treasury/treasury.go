package treasury

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type treasuryStore struct {
	db *db.DB
}

// New new treasury store
func New(db *db.DB) core.ITreasuryStore {
	return &treasuryStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Treasury{})
		if err := tx.AutoMigrate(core.Treasury{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *treasuryStore) Save(ctx context.Context, tx *db.DB, treasury *core.Treasury) error {
	version := treasury.Version
	treasury.Version++

	if treasury.ID == 0 {
		return tx.Update().Create(treasury).Error
	}

	return tx.Update().Model(core.Treasury{}).
		Where("id=? and version=?", treasury.ID, version).
		Update(map[string]interface{}{
			"amount":  treasury.Amount,
			"version": treasury.Version,
		}).Error
}

// Find returns the fee balance row, or a zero row for accounts that have not
// accrued fees in this asset yet.
func (s *treasuryStore) Find(ctx context.Context, account, assetID string) (*core.Treasury, error) {
	var treasury core.Treasury
	err := s.db.View().Where("account=? and asset_id=?", account, assetID).First(&treasury).Error
	if gorm.IsRecordNotFoundError(err) {
		return &core.Treasury{
			Account: account,
			AssetID: assetID,
			Amount:  decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &treasury, nil
}

func (s *treasuryStore) FindByAccount(ctx context.Context, account string) ([]*core.Treasury, error) {
	var treasuries []*core.Treasury
	if err := s.db.View().Where("account=?", account).Find(&treasuries).Error; err != nil {
		return nil, err
	}

	return treasuries, nil
}
