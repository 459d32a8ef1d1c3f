package httpx

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitRoundTripper delays outgoing requests so that the upstream never
// sees more than the limiter allows.
type RateLimitRoundTripper struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func NewRateLimitRoundTripper(
	next http.RoundTripper,
	requestsPerSecond float64,
	burst int,
) RateLimitRoundTripper {
	return RateLimitRoundTripper{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1)),
	}
}

func (rt RateLimitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := rt.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("limiter.Wait: %w", err)
	}

	return rt.next.RoundTrip(req) //nolint:wrapcheck
}
