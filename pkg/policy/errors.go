package policy

import "fmt"

// LoadFailure is returned when a policy source could not be used and the
// store installed the fallback policy instead. It is never fatal.
type LoadFailure struct {
	Source string
	Err    error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("policy load from %s failed, using fallback policy: %v", e.Source, e.Err)
}

func (e *LoadFailure) Unwrap() error {
	return e.Err
}

// NewLoadFailure creates a new LoadFailure.
func NewLoadFailure(source string, err error) *LoadFailure {
	return &LoadFailure{Source: source, Err: err}
}

// ValidationError describes one invalid field in a policy document.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid policy field %s: %s", e.Field, e.Message)
}
