package testutil

// FixedRunIDGenerator generates the same run ID every time.
//
// This enables deterministic archive contents and golden comparison. Because
// run IDs are unique in the archive, a second WriteRun with the same generator
// is a no-op; use store.NewFixedGenerator when a test archives several runs.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a new fixed run ID generator.
//
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
//
// Implements store.IDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
