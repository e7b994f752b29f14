package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_Worst(t *testing.T) {
	tests := []struct {
		a, b, want Status
	}{
		{StatusHealthy, StatusHealthy, StatusHealthy},
		{StatusHealthy, StatusDegraded, StatusDegraded},
		{StatusUnhealthy, StatusDegraded, StatusUnhealthy},
		{StatusDegraded, StatusUnhealthy, StatusUnhealthy},
	}

	for _, tt := range tests {
		if got := tt.a.Worst(tt.b); got != tt.want {
			t.Errorf("%v.Worst(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	testErr := errors.New("test error")

	tests := []struct {
		name       string
		result     Result
		wantStatus Status
		wantErr    error
	}{
		{"healthy", Healthy("msg"), StatusHealthy, nil},
		{"degraded", Degraded("msg"), StatusDegraded, nil},
		{"unhealthy", Unhealthy("msg", testErr), StatusUnhealthy, testErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.wantStatus)
			}
			if tt.result.Message != "msg" {
				t.Errorf("Message = %q, want 'msg'", tt.result.Message)
			}
			if tt.result.Error != tt.wantErr {
				t.Errorf("Error = %v, want %v", tt.result.Error, tt.wantErr)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should not be zero")
			}
		})
	}
}

func TestResult_With(t *testing.T) {
	result := Healthy("test").
		WithDetails(map[string]any{"key": "value"}).
		WithDuration(100 * time.Millisecond)

	if result.Details["key"] != "value" {
		t.Errorf("Details[key] = %v, want 'value'", result.Details["key"])
	}
	if result.Duration != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", result.Duration)
	}
}

func TestCheckerFunc(t *testing.T) {
	checker := NewCheckerFunc("ctx-checker", func(ctx context.Context) Result {
		if err := ctx.Err(); err != nil {
			return Unhealthy("cancelled", err)
		}
		return Healthy("ok")
	})

	if checker.Name() != "ctx-checker" {
		t.Errorf("Name() = %v, want 'ctx-checker'", checker.Name())
	}
	if got := checker.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("Check() Status = %v, want StatusHealthy", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := checker.Check(ctx).Status; got != StatusUnhealthy {
		t.Errorf("Check() with cancelled ctx Status = %v, want StatusUnhealthy", got)
	}
}
