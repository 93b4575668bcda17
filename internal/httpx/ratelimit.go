package httpx

import (
	"golang.org/x/time/rate"
)

// NewLimiter creates a token-bucket limiter, falling back to 2 rps / burst 10
// when either value is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = 2.0
	}
	if burst <= 0 {
		burst = 10
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
