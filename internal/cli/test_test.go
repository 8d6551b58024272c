package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `name: single_update
description: One price update
config:
  summary: true
input: |
  1,AAPL,PRICE_UPDATE,100.0,10,B
expect:
  stats:
    total_events: 1
    parsed_events: 1
`

const failingScenario = `name: wrong_count
description: Expects two events but the feed has one
input: |
  1,AAPL,PRICE_UPDATE,100.0,10,B
expect:
  stats:
    total_events: 2
`

func writeScenario(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := executeTest(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := executeTest(t, "text", harnessScenarios)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ alert_round_trip\n")
	assert.Contains(t, out, "✓ mixed_feed\n")
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeTest(t, "json", harnessScenarios, "--filter", "[iu]n*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	assert.Equal(t, "invalid_timestamp", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "unknown_type", resp.Data.Scenarios[1].Name)
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a_pass.yaml", passingScenario)
	writeScenario(t, dir, "b_fail.yaml", failingScenario)

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ single_update\n")
	assert.Contains(t, out, "✗ wrong_count\n")
	assert.Contains(t, out, "total_events")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailureJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b_fail.yaml", failingScenario)

	out, err := executeTest(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string     `json:"code"`
			Message string     `json:"message"`
			Details TestResult `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)
	assert.Equal(t, 1, resp.Error.Details.Failed)
	require.Len(t, resp.Error.Details.Scenarios, 1)
	assert.False(t, resp.Error.Details.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Error.Details.Scenarios[0].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: [unclosed\n")

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml\n")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "single_update.yaml", passingScenario)
	goldenPath := filepath.Join(dir, "golden", "single_update.golden")

	out, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ single_update (golden updated)")
	require.FileExists(t, goldenPath)

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), "SUMMARY\n")

	_, err = executeTest(t, "text", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("stale\n"), 0o644))
	out, err = executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}
