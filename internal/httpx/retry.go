package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"coinit/internal/metrics"
)

// Retrier resends idempotent requests on transport errors, 429 and 5xx.
type Retrier struct {
	Client      *http.Client
	MaxAttempts int
	BaseBackoff time.Duration
}

// Do sends req, retrying with exponential backoff and +/-20% jitter.
// A Retry-After header on 429/5xx replaces the computed wait.
// The final 429/5xx response is returned as-is so callers can report its status.
func (r Retrier) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := r.BaseBackoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			metrics.IncAPIRetry(req.URL.Path)
		}
		resp, err := r.Client.Do(req.Clone(ctx))
		if err == nil {
			retryable := resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)
			if !retryable || attempt == attempts {
				return resp, nil
			}
			wait := retryAfter(resp.Header.Get("Retry-After"), backoff)
			_ = resp.Body.Close()
			if err := sleep(ctx, jitter(wait)); err != nil {
				return nil, err
			}
			backoff *= 2
			continue
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func retryAfter(ra string, def time.Duration) time.Duration {
	if ra == "" {
		return def
	}
	if secs, err := strconv.Atoi(ra); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return def
}

func jitter(wait time.Duration) time.Duration {
	j := time.Duration(float64(wait) * 0.2)
	if j <= 0 {
		return wait
	}
	return wait - j + time.Duration(time.Now().UnixNano()%int64(2*j))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
