package toolkit

import "fmt"

// ValidationError reports a bad or missing tool argument. It is scoped
// to a single field so the model can correct the specific value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
}

// ExecutionError reports a failure inside a named tool, preserving the
// underlying message. Unknown tool names also surface as execution
// errors so the loop never silently ignores a call.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool '%s' failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
