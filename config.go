package ldclump

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/carbocation/pfx"
)

// Config holds the clumping thresholds.
type Config struct {
	// PThreshold is the largest p-value (exclusive) an index variant may
	// have.
	PThreshold float64 `toml:"p_threshold"`

	// R2Threshold is the smallest r^2 at which a neighbor is absorbed.
	R2Threshold float64 `toml:"r2_threshold"`

	// MaxDistance is the window half-width in base pairs.
	MaxDistance uint64 `toml:"max_distance"`

	Threads int `toml:"threads"`
}

func DefaultConfig() Config {
	return Config{
		PThreshold:  1.0,
		R2Threshold: 0.1,
		MaxDistance: 250000,
		Threads:     1,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.PThreshold > 0 && c.PThreshold <= 1):
		return fmt.Errorf("%w: p threshold %g is outside (0,1]", ErrInvalidConfig, c.PThreshold)
	case !(c.R2Threshold >= 0 && c.R2Threshold <= 1):
		return fmt.Errorf("%w: r2 threshold %g is outside [0,1]", ErrInvalidConfig, c.R2Threshold)
	case c.MaxDistance == 0:
		return fmt.Errorf("%w: distance must be positive", ErrInvalidConfig)
	case c.MaxDistance > 1<<31:
		return fmt.Errorf("%w: distance %d exceeds any chromosome", ErrInvalidConfig, c.MaxDistance)
	case c.Threads < 1:
		return fmt.Errorf("%w: need at least one thread, got %d", ErrInvalidConfig, c.Threads)
	}
	return nil
}

// LoadConfig reads a TOML file over the defaults. Keys the Config does not
// know are rejected, so a typo cannot silently leave a default in place.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, pfx.Err(err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return cfg, pfx.Err(fmt.Errorf("%w: unknown keys %s in %s", ErrInvalidConfig, strings.Join(keys, ", "), path))
	}

	return cfg, cfg.Validate()
}
