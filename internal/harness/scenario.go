package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/marketfeed/internal/config"
	"github.com/roach88/marketfeed/internal/parser"
)

// validName restricts scenario names to characters safe in file names.
var validName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// Scenario defines one end-to-end check.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config overrides the defaults. Unset fields keep their default.
	Config ScenarioConfig `yaml:"config"`

	// Archive writes the run to an in-memory archive and checks it reads
	// back to the same digest.
	Archive bool `yaml:"archive,omitempty"`

	// RunID is the fixed run ID used when archiving.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Input is the raw event file content.
	Input string `yaml:"input"`

	// Expect lists the checks applied to the outcome.
	Expect Expect `yaml:"expect"`
}

// ScenarioConfig mirrors config.Config with optional fields.
type ScenarioConfig struct {
	Summary      *bool  `yaml:"summary,omitempty"`
	Alerts       *bool  `yaml:"alerts,omitempty"`
	PriceJumpBps *int64 `yaml:"price_jump_bps,omitempty"`
}

// Resolve applies the overrides to config.Default and validates the result.
func (c ScenarioConfig) Resolve() (config.Config, error) {
	cfg := config.Default()
	if c.Summary != nil {
		cfg.Summary = *c.Summary
	}
	if c.Alerts != nil {
		cfg.Alerts = *c.Alerts
	}
	if c.PriceJumpBps != nil {
		cfg.PriceJumpBps = *c.PriceJumpBps
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Expect groups the checks of a scenario.
type Expect struct {
	Stats       *StatsExpect            `yaml:"stats,omitempty"`
	Alerts      *[]AlertExpect          `yaml:"alerts,omitempty"`
	Symbols     map[string]SymbolExpect `yaml:"symbols,omitempty"`
	Absent      []string                `yaml:"absent,omitempty"`
	Diagnostics *[]DiagnosticExpect     `yaml:"diagnostics,omitempty"`
}

// empty reports whether no check is configured.
func (e Expect) empty() bool {
	return e.Stats == nil && e.Alerts == nil && len(e.Symbols) == 0 &&
		len(e.Absent) == 0 && e.Diagnostics == nil
}

// StatsExpect is a subset match on engine counters.
type StatsExpect struct {
	TotalEvents   *uint64 `yaml:"total_events,omitempty"`
	ParsedEvents  *uint64 `yaml:"parsed_events,omitempty"`
	ParseErrors   *uint64 `yaml:"parse_errors,omitempty"`
	UnknownEvents *uint64 `yaml:"unknown_events,omitempty"`
}

// AlertExpect matches one alert. An empty Message matches any message.
type AlertExpect struct {
	Timestamp int64  `yaml:"timestamp"`
	Symbol    string `yaml:"symbol"`
	Message   string `yaml:"message,omitempty"`
}

// SymbolExpect is a subset match on one symbol's state.
type SymbolExpect struct {
	LastTS *int64 `yaml:"last_ts,omitempty"`

	// LastPrice is a decimal string. It implies the price was observed.
	LastPrice *string `yaml:"last_price,omitempty"`

	// PriceObserved checks whether any price update was accepted.
	PriceObserved *bool `yaml:"price_observed,omitempty"`

	PriceUpdates *uint64 `yaml:"price_updates,omitempty"`
	OrderNew     *uint64 `yaml:"order_new,omitempty"`
	OrderFill    *uint64 `yaml:"order_fill,omitempty"`
	OrderCancel  *uint64 `yaml:"order_cancel,omitempty"`
}

// DiagnosticExpect matches one parser diagnostic. An empty Reason matches
// any reason.
type DiagnosticExpect struct {
	Line   int                   `yaml:"line"`
	Code   parser.DiagnosticCode `yaml:"code"`
	Reason string                `yaml:"reason,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml/.yml files under dir in lexical order.
// filter, if set, is a glob matched against the file name without extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validName.MatchString(s.Name) {
		return fmt.Errorf("name %q must contain only letters, digits, '_', '.', '-'", s.Name)
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := s.Config.Resolve(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if s.Expect.empty() {
		return fmt.Errorf("expect must contain at least one check")
	}

	if s.Expect.Alerts != nil {
		for i, a := range *s.Expect.Alerts {
			if a.Symbol == "" {
				return fmt.Errorf("expect.alerts[%d]: symbol is required", i)
			}
		}
	}

	for sym, se := range s.Expect.Symbols {
		if se.LastPrice != nil {
			if _, err := decimal.NewFromString(*se.LastPrice); err != nil {
				return fmt.Errorf("expect.symbols.%s.last_price: %w", sym, err)
			}
			if se.PriceObserved != nil && !*se.PriceObserved {
				return fmt.Errorf("expect.symbols.%s: last_price conflicts with price_observed: false", sym)
			}
		}
		if slices.Contains(s.Expect.Absent, sym) {
			return fmt.Errorf("expect: %s is listed in both symbols and absent", sym)
		}
	}

	if s.Expect.Diagnostics != nil {
		for i, d := range *s.Expect.Diagnostics {
			if d.Line <= 0 {
				return fmt.Errorf("expect.diagnostics[%d]: line must be positive", i)
			}
			if d.Code == "" {
				return fmt.Errorf("expect.diagnostics[%d]: code is required", i)
			}
		}
	}

	return nil
}
