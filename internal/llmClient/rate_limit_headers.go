package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitHeaders represents normalized provider rate-limit signals.
type RateLimitHeaders struct {
	RetryAfterSeconds int

	LimitRequests     int
	LimitTokens       int
	RemainingRequests int
	RemainingTokens   int

	ResetRequests time.Duration
	ResetTokens   time.Duration
}

type RateLimitHeaderHandler func(headers RateLimitHeaders)

// RateLimitHeaderAwareClient is an optional interface for clients that
// expose parsed provider rate-limit headers.
type RateLimitHeaderAwareClient interface {
	SetRateLimitHeaderHandler(handler RateLimitHeaderHandler)
	LastRateLimitHeaders() (RateLimitHeaders, bool)
}

// parseRateLimitHeaders reads the x-ratelimit header family used by
// OpenAI-compatible servers, plus retry-after. Reset values arrive as Go
// style durations ("7.66s", "2m59s").
func parseRateLimitHeaders(h http.Header) (RateLimitHeaders, bool) {
	out := RateLimitHeaders{}
	found := false

	readInt := func(key string) (int, bool) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return 0, false
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	readDur := func(key string) (time.Duration, bool) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return 0, false
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, false
		}
		return d, true
	}

	if v, ok := readInt("retry-after"); ok {
		out.RetryAfterSeconds = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-limit-requests"); ok {
		out.LimitRequests = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-limit-tokens"); ok {
		out.LimitTokens = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-remaining-requests"); ok {
		out.RemainingRequests = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-remaining-tokens"); ok {
		out.RemainingTokens = v
		found = true
	}
	if v, ok := readDur("x-ratelimit-reset-requests"); ok {
		out.ResetRequests = v
		found = true
	}
	if v, ok := readDur("x-ratelimit-reset-tokens"); ok {
		out.ResetTokens = v
		found = true
	}

	return out, found
}

// RateLimitControlAdapter converts provider rate-limit signals to a wait
// duration, so callers can throttle without knowing provider details.
type RateLimitControlAdapter interface {
	NextWait(headers RateLimitHeaders) time.Duration
}

// HeaderRateLimitControlAdapter derives the wait from normalized signals.
type HeaderRateLimitControlAdapter struct{}

func (HeaderRateLimitControlAdapter) NextWait(headers RateLimitHeaders) time.Duration {
	if headers.RetryAfterSeconds > 0 {
		return time.Duration(headers.RetryAfterSeconds) * time.Second
	}
	if headers.RemainingTokens == 0 && headers.ResetTokens > 0 {
		return headers.ResetTokens
	}
	if headers.RemainingRequests == 0 && headers.ResetRequests > 0 {
		return headers.ResetRequests
	}
	return 0
}
