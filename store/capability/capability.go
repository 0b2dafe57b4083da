package capability

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
)

type grantStore struct {
	db *db.DB
}

// New new capability grant store
func New(db *db.DB) core.IGrantStore {
	return &grantStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Grant{})
		if err := tx.AutoMigrate(core.Grant{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *grantStore) Save(ctx context.Context, tx *db.DB, grant *core.Grant) error {
	return tx.Update().
		Where("principal=? and capability=?", grant.Principal, grant.Capability).
		FirstOrCreate(grant).Error
}

func (s *grantStore) Delete(ctx context.Context, tx *db.DB, principal string, cap core.Capability) error {
	return tx.Update().
		Where("principal=? and capability=?", principal, cap).
		Delete(core.Grant{}).Error
}

func (s *grantStore) Find(ctx context.Context, principal string) ([]*core.Grant, error) {
	var grants []*core.Grant
	if err := s.db.View().Where("principal=?", principal).Find(&grants).Error; err != nil {
		return nil, err
	}

	return grants, nil
}

func (s *grantStore) All(ctx context.Context) ([]*core.Grant, error) {
	var grants []*core.Grant
	if err := s.db.View().Order("id").Find(&grants).Error; err != nil {
		return nil, err
	}

	return grants, nil
}
