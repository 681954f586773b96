package testutil

// StaticRunID returns the same run ID on every call.
//
// Scenarios that set run_id (or fall back to the default) produce
// byte-identical traces across reruns, which golden comparison relies on.
// engine.FixedGenerator hands out a sequence and panics when exhausted;
// StaticRunID never runs out.
//
// Thread-safety: StaticRunID is immutable and safe for concurrent use.
type StaticRunID string

// DefaultRunID is used when a scenario does not name its run.
const DefaultRunID = "test-run-default"

// NewStaticRunID returns id, or DefaultRunID if id is empty.
func NewStaticRunID(id string) StaticRunID {
	if id == "" {
		return DefaultRunID
	}
	return StaticRunID(id)
}

// Generate implements engine.RunIDGenerator.
func (r StaticRunID) Generate() string {
	return string(r)
}
