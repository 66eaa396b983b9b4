package query

import "fmt"

// InputKind classifies a rejected query input.
type InputKind string

const (
	KindNoInput  InputKind = "no_input"
	KindTooLarge InputKind = "too_large"
	KindCorrupt  InputKind = "corrupt"
)

// InvalidInputError reports a query input that was rejected before any
// embedding work started.
type InvalidInputError struct {
	Kind   InputKind
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error { return e.Err }
