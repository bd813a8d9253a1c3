package agent

import (
	"context"

	"github.com/loanlab/underwriter/pkg/inference"
)

// Caller is the slice of the inference gateway the session loop needs.
type Caller interface {
	Call(ctx context.Context, req inference.Request) (*inference.Response, error)
}

// TraceEntry records one tool invocation for the caller-facing trace.
type TraceEntry struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
}

// Outcome is what a session run produces. Collected holds the last
// successful result per tool name; Errors accumulates recoverable
// failures; Failure is set when the loop stopped on an API or parse
// error. Hitting the turn ceiling with partial results is not a
// failure; the caller's assembler degrades gracefully.
type Outcome struct {
	RunID     string
	Content   string
	Collected map[string]map[string]any
	Trace     []TraceEntry
	Errors    []string
	Failure   error
	Turns     int
}

// Has reports whether a successful result was collected for the tool.
func (o *Outcome) Has(tool string) bool {
	_, ok := o.Collected[tool]
	return ok
}

// Result returns the collected result for a tool, or nil.
func (o *Outcome) Result(tool string) map[string]any {
	return o.Collected[tool]
}
