// Package config loads the engine's tunables from a TOML file, decoded with
// BurntSushi/toml.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the knobs spec.md's components take as parameters instead
// of hardcoded constants.
type Config struct {
	// MaxFieldLimit bounds getGepObjAddrs's fan-out (spec.md §4.2).
	MaxFieldLimit int `toml:"max_field_limit"`
	// WidenDelay is the number of plain joins a WTOEngine performs at a
	// cycle head before switching to widening (spec.md §4.6).
	WidenDelay int `toml:"widen_delay"`
	// MaxAddrSet is decoded as a member limit in the form
	// address.JoinClamped takes (0 meaning no limit). The engine does not
	// read it, so address sets are never clamped during a run.
	MaxAddrSet int `toml:"max_addr_set"`
	// ExtAPIPath points at the TOML table of external-function
	// annotations (spec.md §4.8).
	ExtAPIPath string `toml:"extapi_path"`
	// OutputName is decoded from the file but not used: no report is
	// written to it, and cmd/svfae prints its results to stdout.
	OutputName string `toml:"output"`
	// PStat enables the end-of-run statistics summary.
	PStat bool `toml:"pstat"`
}

// Default returns the engine's hardcoded defaults, used when no config
// file is given and as the base Load merges a file's overrides onto.
func Default() *Config {
	return &Config{
		MaxFieldLimit: 1024,
		WidenDelay:    3,
		MaxAddrSet:    0,
		ExtAPIPath:    "",
		OutputName:    "",
		PStat:         false,
	}
}

// Load decodes path into a Config seeded with Default's values, so a file
// that sets only a few fields leaves the rest at their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "loading config %q", path)
	}
	return cfg, nil
}
