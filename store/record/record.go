package record

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
)

type recordStore struct {
	db *db.DB
}

// New new record store
func New(db *db.DB) core.IRecordStore {
	return &recordStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Record{})
		if err := tx.AutoMigrate(core.Record{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *recordStore) Create(ctx context.Context, tx *db.DB, record *core.Record) error {
	return tx.Update().Create(record).Error
}

func (s *recordStore) List(ctx context.Context, assetID string, limit int) ([]*core.Record, error) {
	query := s.db.View().Order("id desc").Limit(limit)
	if assetID != "" {
		query = query.Where("asset_id=?", assetID)
	}

	var records []*core.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
