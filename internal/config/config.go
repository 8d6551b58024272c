// Package config resolves marketfeed settings.
//
// Sources, highest precedence first:
//
//  1. Command-line flags that were explicitly set
//  2. MARKETFEED_* environment variables (MARKETFEED_PRICE_JUMP_BPS, ...)
//  3. An optional config file (YAML, JSON or TOML by extension)
//  4. Defaults
//
// The merged result is checked against an embedded CUE schema before use.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/marketfeed/internal/engine"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "MARKETFEED"

// Setting keys. Flags use the same names with '-' in place of '_'.
const (
	KeySummary      = "summary"
	KeyAlerts       = "alerts"
	KeyPriceJumpBps = "price_jump_bps"
	KeyInput        = "input"
	KeyArchive      = "archive"
)

// ErrInvalid is returned when the resolved settings fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved configuration for one run.
type Config struct {
	// Summary enables the end-of-run summary.
	Summary bool `mapstructure:"summary" json:"summary"`

	// Alerts enables price-jump alerts.
	Alerts bool `mapstructure:"alerts" json:"alerts"`

	// PriceJumpBps is the inclusive alert threshold in basis points.
	PriceJumpBps int64 `mapstructure:"price_jump_bps" json:"price_jump_bps"`

	// Input is the event file path. Empty means stdin.
	Input string `mapstructure:"input" json:"input,omitempty"`

	// Archive is an optional sqlite path runs are recorded to.
	Archive string `mapstructure:"archive" json:"archive,omitempty"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		PriceJumpBps: engine.DefaultPriceJumpBps,
	}
}

// Engine projects the engine-facing subset.
func (c Config) Engine() engine.Config {
	return engine.Config{
		EmitSummary:  c.Summary,
		EmitAlerts:   c.Alerts,
		PriceJumpBps: c.PriceJumpBps,
	}
}

// Load resolves configuration from path (optional), the environment and
// flags. flags may be nil; only flags it actually defines are bound.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault(KeySummary, def.Summary)
	v.SetDefault(KeyAlerts, def.Alerts)
	v.SetDefault(KeyPriceJumpBps, def.PriceJumpBps)
	v.SetDefault(KeyInput, def.Input)
	v.SetDefault(KeyArchive, def.Archive)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if flags != nil {
		for _, key := range []string{KeySummary, KeyAlerts, KeyPriceJumpBps, KeyInput, KeyArchive} {
			f := flags.Lookup(flagName(key))
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("config: bind flag %s: %w", f.Name, err)
			}
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the embedded schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}

	val := ctx.Encode(cfg)
	if err := val.Err(); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// flagName maps a setting key to its flag name.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
