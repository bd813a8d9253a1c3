package inference

import "fmt"

// APIError reports an inference call that failed after the retry budget
// was spent, or failed with a non-transient error. Retries carries the
// number of retries actually attempted.
type APIError struct {
	Retries int
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference API error after %d retries: %v", e.Retries, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ParseError reports a tool-call argument payload that was not valid
// JSON. It means the model emitted an un-executable call, so it is
// never retried and must not be folded into APIError.
type ParseError struct {
	Tool string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse arguments for tool call '%s': %v", e.Tool, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
