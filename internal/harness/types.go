package harness

// TraceEvent is one step outcome in a scenario trace: either a recorded
// decomposition (Seq > 0) or a static error (Error set).
type TraceEvent struct {
	Step     string   `json:"step"`
	Seq      int64    `json:"seq,omitempty"`
	Pattern  string   `json:"pattern"`
	Type     string   `json:"type"`
	Mode     string   `json:"mode,omitempty"`
	Resolved []string `json:"resolved,omitempty"`
	Bindings any      `json:"bindings,omitempty"` // plain data, see engine.Bindings.Plain
	Error    string   `json:"error,omitempty"`    // ResolveError code
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step met its expectation.
	Pass bool `json:"pass"`

	// RunID is the run every recorded decomposition belongs to.
	RunID string `json:"run_id"`

	// Trace contains recorded decompositions and static errors in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// recorded counts trace events that were persisted.
func (r *Result) recorded() int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Seq > 0 {
			n++
		}
	}
	return n
}
