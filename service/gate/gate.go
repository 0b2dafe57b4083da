package gate

import (
	"context"
	"time"

	"flowpool/config"
	"flowpool/core"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/store/db"
)

const (
	cacheCapacity = 2048
	cacheTTL      = 5 * time.Second
)

type gateService struct {
	db      core.Transactor
	grants  core.IGrantStore
	genesis *config.Genesis
	pauses  core.IPauseReader
	cache   gcache.Cache
}

// New new capability gate. Genesis grants come from config and cannot be
// revoked at runtime; everything else lives in the grant table.
func New(db core.Transactor, grants core.IGrantStore, genesis *config.Genesis, pauses core.IPauseReader) core.IGate {
	return &gateService{
		db:      db,
		grants:  grants,
		genesis: genesis,
		pauses:  pauses,
		cache:   gcache.New(cacheCapacity).LRU().Expiration(cacheTTL).Build(),
	}
}

func (s *gateService) Authorize(ctx context.Context, principal string, capability core.Capability) error {
	if principal == "" {
		return core.ErrInvalidPrincipal
	}

	if !capability.Valid() {
		return core.ErrInvalidCapability
	}

	if s.genesis.Granted(principal, capability) {
		return nil
	}

	held, err := s.capabilities(ctx, principal)
	if err != nil {
		return err
	}

	if _, ok := held[capability]; !ok {
		return core.ErrUnauthorized
	}

	return nil
}

// Grant writes a runtime capability grant. Grants mutate authorization state,
// so the guardian pause blocks them like every other mutation.
func (s *gateService) Grant(ctx context.Context, operator, principal string, capability core.Capability) error {
	if err := s.Authorize(ctx, operator, core.CapabilityAdmin); err != nil {
		return err
	}

	if err := s.checkPause(ctx); err != nil {
		return err
	}

	if principal == "" {
		return core.ErrInvalidPrincipal
	}

	if !capability.Valid() {
		return core.ErrInvalidCapability
	}

	if err := s.db.Tx(func(tx *db.DB) error {
		return s.grants.Save(ctx, tx, &core.Grant{
			Principal:  principal,
			Capability: capability,
		})
	}); err != nil {
		return err
	}

	s.cache.Remove(principal)
	return nil
}

func (s *gateService) Revoke(ctx context.Context, operator, principal string, capability core.Capability) error {
	if err := s.Authorize(ctx, operator, core.CapabilityAdmin); err != nil {
		return err
	}

	if err := s.checkPause(ctx); err != nil {
		return err
	}

	if !capability.Valid() {
		return core.ErrInvalidCapability
	}

	if err := s.db.Tx(func(tx *db.DB) error {
		return s.grants.Delete(ctx, tx, principal, capability)
	}); err != nil {
		return err
	}

	s.cache.Remove(principal)
	return nil
}

func (s *gateService) checkPause(ctx context.Context) error {
	paused, err := s.pauses.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return core.ErrSystemPaused
	}

	return nil
}

func (s *gateService) capabilities(ctx context.Context, principal string) (map[core.Capability]struct{}, error) {
	if v, err := s.cache.Get(principal); err == nil {
		return v.(map[core.Capability]struct{}), nil
	}

	grants, err := s.grants.Find(ctx, principal)
	if err != nil {
		return nil, err
	}

	held := make(map[core.Capability]struct{}, len(grants))
	for _, g := range grants {
		held[g.Capability] = struct{}{}
	}

	_ = s.cache.Set(principal, held)
	return held, nil
}
