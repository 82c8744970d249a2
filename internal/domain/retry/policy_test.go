package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/domain/retry"
)

func TestPolicy_CalculateDelay(t *testing.T) {
	tests := []struct {
		name        string
		policy      retry.Policy
		attempt     int
		expectedMin time.Duration
		expectedMax time.Duration
	}{
		{
			name: "fixed backoff - attempt 1",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffFixed,
				InitialDelay:    100 * time.Millisecond,
				MaxDelay:        1 * time.Second,
				JitterFactor:    0,
			},
			attempt:     1,
			expectedMin: 100 * time.Millisecond,
			expectedMax: 100 * time.Millisecond,
		},
		{
			name: "fixed backoff - attempt 5",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffFixed,
				InitialDelay:    100 * time.Millisecond,
				MaxDelay:        1 * time.Second,
				JitterFactor:    0,
			},
			attempt:     5,
			expectedMin: 100 * time.Millisecond,
			expectedMax: 100 * time.Millisecond,
		},
		{
			name: "linear backoff - attempt 3",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffLinear,
				InitialDelay:    100 * time.Millisecond,
				MaxDelay:        1 * time.Second,
				JitterFactor:    0,
			},
			attempt:     3,
			expectedMin: 300 * time.Millisecond,
			expectedMax: 300 * time.Millisecond,
		},
		{
			name: "exponential backoff - attempt 3",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffExponential,
				InitialDelay:    100 * time.Millisecond,
				MaxDelay:        10 * time.Second,
				JitterFactor:    0,
			},
			attempt:     3,
			expectedMin: 400 * time.Millisecond,
			expectedMax: 400 * time.Millisecond,
		},
		{
			name: "respects max delay",
			policy: retry.Policy{
				BackoffStrategy: retry.BackoffExponential,
				InitialDelay:    100 * time.Millisecond,
				MaxDelay:        200 * time.Millisecond,
				JitterFactor:    0,
			},
			attempt:     10,
			expectedMin: 200 * time.Millisecond,
			expectedMax: 200 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.CalculateDelay(tt.attempt)
			if got < tt.expectedMin || got > tt.expectedMax {
				t.Errorf("Policy.CalculateDelay() = %v, want between %v and %v", got, tt.expectedMin, tt.expectedMax)
			}
		})
	}
}

func TestPolicy_ShouldRetry(t *testing.T) {
	recoverable := domainerrors.NewExternalModelError("model hiccup", nil)
	fatal := domainerrors.NewAgentError(domainerrors.ErrCodeInternal, "broken invariant", domainerrors.SeverityFatal)
	userCaused := domainerrors.NewIngestionError("bad upload", nil)

	tests := []struct {
		name     string
		policy   retry.Policy
		attempt  int
		err      error
		expected bool
	}{
		{
			name:     "retries recoverable error within max attempts",
			policy:   retry.Policy{MaxRetries: 3},
			attempt:  1,
			err:      recoverable,
			expected: true,
		},
		{
			name:     "stops when max attempts exceeded",
			policy:   retry.Policy{MaxRetries: 3},
			attempt:  3,
			err:      recoverable,
			expected: false,
		},
		{
			name:     "never retries fatal errors",
			policy:   retry.Policy{MaxRetries: 3},
			attempt:  1,
			err:      fatal,
			expected: false,
		},
		{
			name:     "never retries user-caused errors",
			policy:   retry.Policy{MaxRetries: 3},
			attempt:  1,
			err:      userCaused,
			expected: false,
		},
		{
			name:     "plain errors are treated as fatal",
			policy:   retry.Policy{MaxRetries: 3},
			attempt:  1,
			err:      errors.New("unknown"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.ShouldRetry(tt.attempt, tt.err); got != tt.expected {
				t.Errorf("Policy.ShouldRetry() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDefaultPolicy(t *testing.T) {
	policy := retry.DefaultPolicy()

	if policy.MaxRetries != 3 {
		t.Errorf("DefaultPolicy().MaxRetries = %v, want 3", policy.MaxRetries)
	}
	if policy.BackoffStrategy != retry.BackoffExponential {
		t.Errorf("DefaultPolicy().BackoffStrategy = %v, want BackoffExponential", policy.BackoffStrategy)
	}
	if policy.InitialDelay != 1*time.Second {
		t.Errorf("DefaultPolicy().InitialDelay = %v, want 1s", policy.InitialDelay)
	}
}

func TestExecuteWithResult(t *testing.T) {
	t.Run("returns result on first success", func(t *testing.T) {
		policy := retry.Policy{
			MaxRetries:      3,
			BackoffStrategy: retry.BackoffFixed,
			InitialDelay:    1 * time.Millisecond,
		}

		callCount := 0
		result, err := retry.ExecuteWithResult(context.Background(), policy, func(ctx context.Context, attempt int) (string, error) {
			callCount++
			return "success", nil
		})

		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if result != "success" {
			t.Errorf("Expected 'success', got %v", result)
		}
		if callCount != 1 {
			t.Errorf("Expected 1 call, got %d", callCount)
		}
	})

	t.Run("retries recoverable errors and returns result", func(t *testing.T) {
		policy := retry.Policy{
			MaxRetries:      3,
			BackoffStrategy: retry.BackoffFixed,
			InitialDelay:    1 * time.Millisecond,
		}

		callCount := 0
		result, err := retry.ExecuteWithResult(context.Background(), policy, func(ctx context.Context, attempt int) (int, error) {
			callCount++
			if callCount < 3 {
				return 0, domainerrors.NewExternalModelError("transient", nil)
			}
			return 42, nil
		})

		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if result != 42 {
			t.Errorf("Expected 42, got %v", result)
		}
		if callCount != 3 {
			t.Errorf("Expected 3 calls, got %d", callCount)
		}
	})

	t.Run("short-circuits user-caused errors", func(t *testing.T) {
		policy := retry.Policy{
			MaxRetries:      3,
			BackoffStrategy: retry.BackoffFixed,
			InitialDelay:    1 * time.Millisecond,
		}

		callCount := 0
		_, err := retry.ExecuteWithResult(context.Background(), policy, func(ctx context.Context, attempt int) (string, error) {
			callCount++
			return "", domainerrors.NewIngestionError("bad file", nil)
		})

		if !domainerrors.IsIngestionError(err) {
			t.Errorf("Expected ingestion error, got %v", err)
		}
		if callCount != 1 {
			t.Errorf("Expected 1 call, got %d", callCount)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		policy := retry.Policy{
			MaxRetries:      3,
			BackoffStrategy: retry.BackoffFixed,
			InitialDelay:    100 * time.Millisecond,
		}

		_, err := retry.ExecuteWithResult(ctx, policy, func(ctx context.Context, attempt int) (string, error) {
			return "", errors.New("should not reach here")
		})

		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestExecute(t *testing.T) {
	policy := retry.NoRetryPolicy()

	callCount := 0
	err := retry.Execute(context.Background(), policy, func(ctx context.Context, attempt int) error {
		callCount++
		return domainerrors.NewExternalModelError("transient", nil)
	})

	if err == nil {
		t.Error("Expected error after exhausting retries")
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call with no-retry policy, got %d", callCount)
	}
}
