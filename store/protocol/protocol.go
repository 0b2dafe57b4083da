package protocol

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/store/db"
)

type protocolStore struct {
	db *db.DB
}

// New new protocol store
func New(db *db.DB) core.IProtocolStore {
	return &protocolStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Protocol{})
		if err := tx.AutoMigrate(core.Protocol{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *protocolStore) Create(ctx context.Context, tx *db.DB, protocol *core.Protocol) error {
	return tx.Update().Create(protocol).Error
}

func (s *protocolStore) Find(ctx context.Context, protocolID string) (*core.Protocol, error) {
	var protocol core.Protocol
	if err := s.db.View().Where("protocol_id=?", protocolID).First(&protocol).Error; err != nil {
		return nil, err
	}

	return &protocol, nil
}

// All returns protocols ordered by registration; the allocation engine relies
// on this order for deterministic tie breaking.
func (s *protocolStore) All(ctx context.Context) ([]*core.Protocol, error) {
	var protocols []*core.Protocol
	if err := s.db.View().Order("id").Find(&protocols).Error; err != nil {
		return nil, err
	}

	return protocols, nil
}

func (s *protocolStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.View().Model(core.Protocol{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (s *protocolStore) Update(ctx context.Context, tx *db.DB, protocol *core.Protocol) error {
	version := protocol.Version
	protocol.Version++

	// column map so deactivation and cleared flags still persist
	return tx.Update().Model(core.Protocol{}).
		Where("protocol_id=? and version=?", protocol.ProtocolID, version).
		Update(map[string]interface{}{
			"name":           protocol.Name,
			"is_active":      protocol.IsActive,
			"yield_rate_bps": protocol.YieldRateBps,
			"risk_score":     protocol.RiskScore,
			"max_capacity":   protocol.MaxCapacity,
			"needs_refresh":  protocol.NeedsRefresh,
			"version":        protocol.Version,
		}).Error
}
