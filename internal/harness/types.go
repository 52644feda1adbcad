package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	// Step is the 1-based step number.
	Step int `json:"step"`

	// Op is the operation: define, compound, rename, remove, eval, query,
	// matrix.
	Op string `json:"op"`

	// Target is what the step operated on, e.g. "∀X ∃Y p" or "p -> lt".
	Target string `json:"target"`

	// Summary is the one-line outcome: a caption, a truth value, a verdict,
	// or "error CODE".
	Summary string `json:"summary"`

	// Detail holds further lines: report messages, witnesses, matrix rows.
	Detail []string `json:"detail,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and assertion
	// matched.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
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

// AddTrace appends a step event.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
