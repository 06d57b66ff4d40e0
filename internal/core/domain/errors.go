package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidQuery = errors.New("invalid query")
)

// ValidationError carries one message per failed field constraint.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Messages, "; "))
}

// StoreError wraps a failure reported by the document store. Op is the
// store operation and Link the resource it addressed.
type StoreError struct {
	Op   string
	Link string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Link == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Link, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
