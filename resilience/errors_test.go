package resilience

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrCircuitOpen", ErrCircuitOpen},
		{"ErrMaxRetriesExceeded", ErrMaxRetriesExceeded},
		{"ErrRateLimitExceeded", ErrRateLimitExceeded},
		{"ErrBulkheadFull", ErrBulkheadFull},
		{"ErrTimeout", ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("%s is nil", tt.name)
			}

			// Check error message is not empty
			if tt.err.Error() == "" {
				t.Errorf("%s has empty message", tt.name)
			}
		})
	}
}

func TestRetryError(t *testing.T) {
	last := errors.New("attempt 4 failed")
	err := error(&RetryError{Attempts: 4, Err: last})

	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Error("RetryError does not match ErrMaxRetriesExceeded")
	}
	if !errors.Is(err, last) {
		t.Error("RetryError does not match the final error")
	}
	if errors.Is(err, ErrCircuitOpen) {
		t.Error("RetryError matches ErrCircuitOpen")
	}

	want := "resilience: max retries exceeded after 4 attempts: attempt 4 failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
