package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"legendastv/internal/services"
)

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: errors.New("search failed (429 Too Many Requests)"), want: true},
		{name: "bad gateway", err: errors.New("502 Bad Gateway"), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "transient marker", err: services.Wrap(services.ErrTransient, "search", "", "", nil), want: true},
		{name: "bad request", err: errors.New("400 Bad Request"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsRetriable(tt.err); got != tt.want {
				t.Fatalf("IsRetriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestLimiterRetriesTransientErrors(t *testing.T) {
	limiter := &services.Limiter{MinInterval: -1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	calls := 0
	err := limiter.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("503 Service Unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestLimiterStopsOnPermanentError(t *testing.T) {
	limiter := &services.Limiter{MinInterval: -1}
	calls := 0
	permanent := errors.New("401 Unauthorized")
	err := limiter.Do(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected single failing call, got %d calls and %v", calls, err)
	}
}

func TestSleepWithContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := services.SleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
