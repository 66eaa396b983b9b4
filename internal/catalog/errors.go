package catalog

import "fmt"

// LoadError is returned when a catalog source is missing, unreadable,
// malformed, or fails validation. The service must not start with it.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "catalog load failed"
	if e.Source != "" {
		msg = fmt.Sprintf("catalog load failed (%s)", e.Source)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }
