package system

import (
	"context"

	"flowpool/core"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
	"github.com/spf13/cast"
)

type systemService struct {
	pauseReader
	gate core.IGate
}

// New new system service
func New(gate core.IGate, properties property.Store) core.ISystemService {
	return &systemService{
		pauseReader: pauseReader{properties: properties},
		gate:        gate,
	}
}

type pauseReader struct {
	properties property.Store
}

// NewPauseReader reads the pause flag straight off the property store. The
// gate uses it, so the gate does not depend on the system service it guards.
func NewPauseReader(properties property.Store) core.IPauseReader {
	return &pauseReader{properties: properties}
}

func (s *pauseReader) Paused(ctx context.Context) (bool, error) {
	v, err := s.properties.Get(ctx, core.SysPausedKey)
	if err != nil {
		return false, err
	}

	return cast.ToBool(v.String()), nil
}

// SetPause flips the guardian pause flag. While paused, every mutating
// operation except emergency recovery fails with ErrSystemPaused.
func (s *systemService) SetPause(ctx context.Context, principal string, paused bool) error {
	if err := s.gate.Authorize(ctx, principal, core.CapabilityGuardian); err != nil {
		return err
	}

	if err := s.properties.Save(ctx, core.SysPausedKey, paused); err != nil {
		return err
	}

	logger.FromContext(ctx).WithField("service", "system").
		WithField("paused", paused).
		Infoln("pause flag updated")

	return nil
}
