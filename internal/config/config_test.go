package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketfeed/internal/engine"
)

func newFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("summary", false, "")
	fs.Bool("alerts", false, "")
	fs.Int64("price-jump-bps", engine.DefaultPriceJumpBps, "")
	fs.String("input", "", "")
	fs.String("archive", "", "")
	return fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(50), cfg.PriceJumpBps)
	assert.False(t, cfg.Summary)
	assert.False(t, cfg.Alerts)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "marketfeed.yaml", "summary: true\nalerts: true\nprice_jump_bps: 10\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, Config{Summary: true, Alerts: true, PriceJumpBps: 10}, cfg)
}

func TestLoad_FileWithoutExtensionIsYAML(t *testing.T) {
	path := writeFile(t, "marketfeedrc", "price_jump_bps: 7\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.PriceJumpBps)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeFile(t, "marketfeed.yaml", "price_jump_bps: 10\nthreshold: 5\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "threshold")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "marketfeed.yaml", "price_jump_bps: 10\n")
	t.Setenv("MARKETFEED_PRICE_JUMP_BPS", "25")
	t.Setenv("MARKETFEED_ALERTS", "true")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(25), cfg.PriceJumpBps)
	assert.True(t, cfg.Alerts)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("MARKETFEED_PRICE_JUMP_BPS", "25")

	fs := newFlags(t)
	require.NoError(t, fs.Parse([]string{"--price-jump-bps", "5", "--summary"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.PriceJumpBps)
	assert.True(t, cfg.Summary)
}

func TestLoad_UnsetFlagsDoNotShadowLowerSources(t *testing.T) {
	path := writeFile(t, "marketfeed.yaml", "price_jump_bps: 10\nsummary: true\n")

	fs := newFlags(t)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, int64(10), cfg.PriceJumpBps)
	assert.True(t, cfg.Summary)
}

func TestLoad_NegativeThresholdRejected(t *testing.T) {
	fs := newFlags(t)
	require.NoError(t, fs.Parse([]string{"--price-jump-bps=-1"}))

	_, err := Load("", fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_InputAndArchive(t *testing.T) {
	fs := newFlags(t)
	require.NoError(t, fs.Parse([]string{"--input", "feed.csv", "--archive", "runs.db"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, "feed.csv", cfg.Input)
	assert.Equal(t, "runs.db", cfg.Archive)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Default(), false},
		{"zero threshold", Config{PriceJumpBps: 0}, false},
		{"large threshold", Config{PriceJumpBps: 1 << 40}, false},
		{"negative threshold", Config{PriceJumpBps: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Engine(t *testing.T) {
	cfg := Config{Summary: true, Alerts: true, PriceJumpBps: 12, Input: "x"}

	assert.Equal(t, engine.Config{
		EmitSummary:  true,
		EmitAlerts:   true,
		PriceJumpBps: 12,
	}, cfg.Engine())
}
