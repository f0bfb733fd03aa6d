package services

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// Default pacing for remote catalog calls.
const (
	MinInterval    = time.Second
	MaxRateRetries = 6
	InitialBackoff = 2 * time.Second
	MaxBackoff     = 60 * time.Second
)

// Limiter spaces out calls to a remote service and retries transient
// failures with exponential backoff. The zero value uses the package
// defaults. A Limiter is safe for concurrent use.
type Limiter struct {
	Name           string
	MinInterval    time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Logger         *slog.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// Do runs op, waiting for the call window first and retrying while the
// error is retriable.
func (l *Limiter) Do(ctx context.Context, op func() error) error {
	if op == nil {
		return errors.New("operation unavailable")
	}
	maxRetries := l.MaxRetries
	if maxRetries == 0 {
		maxRetries = MaxRateRetries
	}
	attempt := 0
	for {
		if err := l.wait(ctx); err != nil {
			return err
		}
		err := op()
		l.mark()
		if err == nil {
			return nil
		}
		if !IsRetriable(err) || attempt >= maxRetries {
			return err
		}
		attempt++
		backoff := l.backoff(attempt)
		if l.Logger != nil {
			l.Logger.Warn("remote call failed, retrying",
				slog.String("service", l.Name),
				slog.Duration("backoff", backoff),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", maxRetries),
				slog.String("error", err.Error()),
				slog.String("event_type", "rate_limited"),
				slog.String("error_hint", "wait for rate limits or check network connectivity"),
				slog.String("impact", "resolution is delayed"),
			)
		}
		if err := SleepWithContext(ctx, backoff); err != nil {
			return err
		}
	}
}

func (l *Limiter) backoff(attempt int) time.Duration {
	initial := l.InitialBackoff
	if initial <= 0 {
		initial = InitialBackoff
	}
	ceiling := l.MaxBackoff
	if ceiling <= 0 {
		ceiling = MaxBackoff
	}
	backoff := initial * time.Duration(1<<uint(attempt-1))
	if backoff > ceiling || backoff <= 0 {
		backoff = ceiling
	}
	return backoff
}

func (l *Limiter) wait(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context unavailable")
	}
	interval := l.MinInterval
	if interval == 0 {
		interval = MinInterval
	}
	l.mu.Lock()
	lastCall := l.lastCall
	l.mu.Unlock()
	if lastCall.IsZero() || interval < 0 {
		return nil
	}
	elapsed := time.Since(lastCall)
	if elapsed >= interval {
		return nil
	}
	return SleepWithContext(ctx, interval-elapsed)
}

func (l *Limiter) mark() {
	l.mu.Lock()
	l.lastCall = time.Now()
	l.mu.Unlock()
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry (rate limits, timeouts, connection errors).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "429") || strings.Contains(message, "rate limit") {
		return true
	}
	// Server errors are typically transient (outages, deploys, overload).
	for _, code := range []string{"502", "503", "504"} {
		if strings.Contains(message, code) {
			return true
		}
	}
	timeoutTokens := []string{
		"timeout",
		"deadline exceeded",
		"client.timeout exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
	}
	for _, token := range timeoutTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
