package domain

import "fmt"

// LineError attaches a 0-based line position to an input error.
type LineError struct {
	Index int
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Index+1, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
