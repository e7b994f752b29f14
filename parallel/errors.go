package parallel

import (
	"errors"
	"fmt"
)

// ErrStopped is matched by the *ItemError that ends a StopOnError run.
var ErrStopped = errors.New("parallel: stopped on error")

// ItemError reports the item that stopped a StopOnError run.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("parallel: item %d: %v", e.Index, e.Err)
}

// Unwrap exposes ErrStopped and the item's own error.
func (e *ItemError) Unwrap() []error {
	return []error{ErrStopped, e.Err}
}

// BatchError reports per-item failures from a collect-mode run.
// Errors has one slot per input item; successful items hold nil.
type BatchError struct {
	Errors []error
}

func (e *BatchError) Error() string {
	failed := e.Failed()
	if len(failed) == 0 {
		return "parallel: no failures"
	}
	first := failed[0]
	return fmt.Sprintf("parallel: %d of %d items failed; item %d: %v",
		len(failed), len(e.Errors), first, e.Errors[first])
}

// Unwrap exposes every non-nil item error.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Failed returns the indices of failed items in ascending order.
func (e *BatchError) Failed() []int {
	var idx []int
	for i, err := range e.Errors {
		if err != nil {
			idx = append(idx, i)
		}
	}
	return idx
}
