package config

import (
	"fmt"

	"flowpool/internal/flowpool"

	"github.com/asaskevich/govalidator"
	configUtil "github.com/fox-one/pkg/config"
	"github.com/pkg/errors"
)

const (
	defaultOpportunisticPercent = 50
	defaultMaxProtocols         = 64
	defaultPort                 = 8080
)

// Load load config file, apply defaults and validate. Policy mistakes are
// rejected here, at configuration time, not when distribution runs.
func Load(cfgFile string, cfg *Config) error {
	configUtil.AutomaticLoadEnv("FLOWPOOL")
	if err := configUtil.LoadYaml(cfgFile, cfg); err != nil {
		return errors.Wrap(err, "load config")
	}

	defaults(cfg)

	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		return errors.Wrap(err, "validate config")
	}

	if !flowpool.ValidFeeBps(cfg.Fees.ProtocolFeeBps, cfg.Fees.TreasuryFeeBps) {
		return fmt.Errorf("config: protocol_fee_bps %d + treasury_fee_bps %d exceeds 10000",
			cfg.Fees.ProtocolFeeBps, cfg.Fees.TreasuryFeeBps)
	}

	if p := *cfg.Allocation.OpportunisticPercent; p < 0 || p > 100 {
		return fmt.Errorf("config: opportunistic_percent %d out of [0, 100]", p)
	}

	if cfg.Allocation.MaxProtocols <= 0 {
		return fmt.Errorf("config: max_protocols must be positive")
	}

	return nil
}

func defaults(cfg *Config) {
	// nil means the key was omitted; an explicit 0 turns the opportunistic
	// path off and must survive defaulting
	if cfg.Allocation.OpportunisticPercent == nil {
		p := int64(defaultOpportunisticPercent)
		cfg.Allocation.OpportunisticPercent = &p
	}

	if cfg.Allocation.MaxProtocols == 0 {
		cfg.Allocation.MaxProtocols = defaultMaxProtocols
	}

	if cfg.App.Port == 0 {
		cfg.App.Port = defaultPort
	}
}
