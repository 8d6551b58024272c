package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/report"
	"github.com/roach88/marketfeed/internal/state"
)

// ErrNotFound is returned when a run ID is not in the archive.
var ErrNotFound = errors.New("run not found")

// RunInfo is the header of an archived run.
type RunInfo struct {
	// Seq is assigned by the archive on insert. Zero before WriteRun.
	Seq int64

	// ID uniquely identifies the run. See IDGenerator.
	ID string

	// Input names the source the events were read from ("-" for stdin).
	Input string

	// Lines is the number of physical input lines consumed.
	Lines int

	// Digest is the report digest of the run's outcome.
	Digest string

	Config engine.Config
	Stats  engine.Stats
}

// Run is a fully archived run.
type Run struct {
	RunInfo

	Symbols []state.SymbolState // ascending by symbol
	Alerts  []engine.Alert      // emission order
}

// NewRun captures rep under id. The digest is computed from rep.
func NewRun(id, input string, lines int, rep report.Report) (Run, error) {
	digest, err := rep.Digest()
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}

	return Run{
		RunInfo: RunInfo{
			ID:     id,
			Input:  input,
			Lines:  lines,
			Digest: digest,
			Config: rep.Config,
			Stats:  rep.Stats,
		},
		Symbols: rep.Symbols,
		Alerts:  rep.Alerts,
	}, nil
}

// Report rebuilds the report the run was archived from.
func (r Run) Report() report.Report {
	return report.Report{
		Config:  r.Config,
		Stats:   r.Stats,
		Symbols: r.Symbols,
		Alerts:  r.Alerts,
	}
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run IDs for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed, to catch test misconfiguration.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
