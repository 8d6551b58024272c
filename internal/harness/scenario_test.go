package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketfeed/internal/parser"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Full(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/mixed_feed.yaml")
	require.NoError(t, err)

	assert.Equal(t, "mixed_feed", s.Name)
	assert.True(t, s.Archive)
	require.NotNil(t, s.Config.Summary)
	assert.True(t, *s.Config.Summary)
	assert.Nil(t, s.Config.PriceJumpBps)

	require.NotNil(t, s.Expect.Alerts)
	assert.Len(t, *s.Expect.Alerts, 1)
	require.NotNil(t, s.Expect.Diagnostics)
	assert.Equal(t, parser.CodeInvalidSide, (*s.Expect.Diagnostics)[2].Code)
	assert.Len(t, s.Expect.Symbols, 4)
}

func TestLoadScenario_EmptyListIsAnExpectation(t *testing.T) {
	path := writeScenario(t, `
name: no_alerts
description: d
input: ""
expect:
  alerts: []
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	require.NotNil(t, s.Expect.Alerts)
	assert.Empty(t, *s.Expect.Alerts)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: a\ndescription: d\nexpects:\n  absent: [X]\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: d\nexpect:\n  absent: [X]\n",
			wantErr: "name is required",
		},
		{
			name:    "unsafe name",
			content: "name: ../escape\ndescription: d\nexpect:\n  absent: [X]\n",
			wantErr: "must contain only",
		},
		{
			name:    "missing description",
			content: "name: a\nexpect:\n  absent: [X]\n",
			wantErr: "description is required",
		},
		{
			name:    "negative threshold",
			content: "name: a\ndescription: d\nconfig:\n  price_jump_bps: -1\nexpect:\n  absent: [X]\n",
			wantErr: "config:",
		},
		{
			name:    "no expectations",
			content: "name: a\ndescription: d\ninput: \"\"\n",
			wantErr: "at least one check",
		},
		{
			name:    "alert without symbol",
			content: "name: a\ndescription: d\nexpect:\n  alerts:\n    - timestamp: 1\n",
			wantErr: "expect.alerts[0]: symbol is required",
		},
		{
			name:    "bad last_price",
			content: "name: a\ndescription: d\nexpect:\n  symbols:\n    A:\n      last_price: abc\n",
			wantErr: "expect.symbols.A.last_price",
		},
		{
			name:    "price conflicts with unobserved",
			content: "name: a\ndescription: d\nexpect:\n  symbols:\n    A:\n      last_price: \"1\"\n      price_observed: false\n",
			wantErr: "conflicts",
		},
		{
			name:    "symbol both present and absent",
			content: "name: a\ndescription: d\nexpect:\n  symbols:\n    A: {}\n  absent: [A]\n",
			wantErr: "both symbols and absent",
		},
		{
			name:    "diagnostic without code",
			content: "name: a\ndescription: d\nexpect:\n  diagnostics:\n    - line: 1\n",
			wantErr: "code is required",
		},
		{
			name:    "diagnostic with zero line",
			content: "name: a\ndescription: d\nexpect:\n  diagnostics:\n    - code: FIELD_COUNT\n",
			wantErr: "line must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestFindScenarios(t *testing.T) {
	all, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.IsIncreasing(t, all)

	filtered, err := FindScenarios("testdata/scenarios", "*_type")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "unknown_type.yaml", filepath.Base(filtered[0]))
}

func TestFindScenarios_BadFilter(t *testing.T) {
	_, err := FindScenarios("testdata/scenarios", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestFindScenarios_MissingDir(t *testing.T) {
	_, err := FindScenarios(filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}

func TestScenarioConfig_Resolve(t *testing.T) {
	cfg, err := ScenarioConfig{}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, int64(50), cfg.PriceJumpBps)
	assert.False(t, cfg.Summary)

	yes := true
	bps := int64(5)
	cfg, err = ScenarioConfig{Summary: &yes, PriceJumpBps: &bps}.Resolve()
	require.NoError(t, err)
	assert.True(t, cfg.Summary)
	assert.False(t, cfg.Alerts)
	assert.Equal(t, int64(5), cfg.PriceJumpBps)
}
