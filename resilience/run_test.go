package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun_ReturnsValue(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	got, err := Run(context.Background(), cb, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Run() = %q, want ok", got)
	}
}

func TestRun_ZeroValueOnError(t *testing.T) {
	retry := NewRetry(RetryConfig{MaxAttempts: 2})
	recordSleeps(retry)

	calls := 0
	got, err := Run(context.Background(), retry, func(ctx context.Context) (int, error) {
		calls++
		return calls, errors.New("nope")
	})
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Fatalf("Run() error = %v, want ErrMaxRetriesExceeded", err)
	}
	if got != 0 {
		t.Errorf("Run() = %d, want zero value", got)
	}
}

func TestRun_LastSuccessfulAttemptWins(t *testing.T) {
	retry := NewRetry(RetryConfig{MaxAttempts: 3})
	recordSleeps(retry)

	calls := 0
	got, err := Run(context.Background(), retry, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return -1, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Run() = %d, want 42", got)
	}
}

func TestRun_TimeoutDiscardsLateValue(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})
	release := make(chan struct{})
	defer close(release)

	got, err := Run(context.Background(), timeout, func(ctx context.Context) (int, error) {
		<-release
		return 7, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if got != 0 {
		t.Errorf("Run() = %d, want zero value", got)
	}
}

func TestRun_AbandonedAttemptCannotOverwrite(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	// Attempt 1 is abandoned while blocked, attempt 2 succeeds, then
	// attempt 1 finishes successfully before Execute returns.
	r := RunnerFunc(func(ctx context.Context, op func(context.Context) error) error {
		stale := make(chan error, 1)
		go func() { stale <- op(ctx) }()
		<-entered

		if err := op(ctx); err != nil {
			return err
		}
		close(release)
		<-stale
		return nil
	})

	calls := 0
	got, err := Run(context.Background(), r, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			close(entered)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "fresh" {
		t.Errorf("Run() = %q, want fresh", got)
	}
}

func TestRunnerFunc(t *testing.T) {
	var wrapped bool
	r := RunnerFunc(func(ctx context.Context, op func(context.Context) error) error {
		wrapped = true
		return op(ctx)
	})

	got, err := Run(context.Background(), r, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if err != nil || got != 1 {
		t.Fatalf("Run() = %d, %v", got, err)
	}
	if !wrapped {
		t.Error("RunnerFunc was not invoked")
	}
}
