// Package generation invokes a remote model to produce grounded answers.
package generation

import (
	"context"
	"fmt"
)

// Generator produces text from a prompt via an external generation model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Error reports a failed generation call. Generation failures are fatal per
// call: there is no automatic retry (the caller may retry the whole answer).
type Error struct {
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("generation: %v", e.Err) }

func (e *Error) Unwrap() error { return e.Err }
