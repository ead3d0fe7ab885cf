package detect

import "fmt"

// Fault records a detector that could not run. A fault degrades coverage for
// that detector only; the remaining detectors still run.
type Fault struct {
	Detector string
	Err      error
}

func (f Fault) Error() string {
	return fmt.Sprintf("detector %s: %v", f.Detector, f.Err)
}

func (f Fault) Unwrap() error {
	return f.Err
}

// DefinitionError is returned when the detector table itself is malformed.
type DefinitionError struct {
	Name    string
	Message string
}

func (e *DefinitionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid detector definition: %s", e.Message)
	}
	return fmt.Sprintf("invalid detector definition %q: %s", e.Name, e.Message)
}
