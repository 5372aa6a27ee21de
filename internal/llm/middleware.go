package llm

import (
	"context"
	"errors"
	"log"
	"time"
)

// Middleware decorates a Client to inject cross-cutting concerns.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit throttles Query to at most rps requests per second with the
// given burst. rps <= 0 disables the limiter. Health checks are never
// throttled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: newLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) HealthCheck(ctx context.Context) bool { return c.next.HealthCheck(ctx) }
func (c *rateLimited) Close() error {
	c.rl.stop()
	return c.next.Close()
}

func (c *rateLimited) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if err := c.rl.acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Query(ctx, prompt, systemPrompt)
}

// MultiLimit applies requests-per-minute, requests-per-day and
// tokens-per-minute limits. Pass 0 to disable any of them. Token spend
// is estimated from the prompt sizes; the estimate errs low rather than
// blocking small requests behind a huge bucket drain.
func MultiLimit(rpm, rpd, tpm int) Middleware {
	var rpmL, rpdL, tpmL *limiter
	if rpm > 0 {
		rpmL = newLimiter(float64(rpm)/60.0, max1(rpm))
	}
	if rpd > 0 {
		rpdL = newLimiter(float64(rpd)/86400.0, max1(rpd))
	}
	if tpm > 0 {
		tpmL = newLimiter(float64(tpm)/60.0, max1(tpm))
	}
	return func(next Client) Client {
		return &multiLimited{next: next, rpm: rpmL, rpd: rpdL, tpm: tpmL}
	}
}

type multiLimited struct {
	next Client
	rpm  *limiter
	rpd  *limiter
	tpm  *limiter
}

func (m *multiLimited) Name() string { return m.next.Name() }
func (m *multiLimited) HealthCheck(ctx context.Context) bool { return m.next.HealthCheck(ctx) }
func (m *multiLimited) Close() error {
	m.rpm.stop()
	m.rpd.stop()
	m.tpm.stop()
	return m.next.Close()
}

func (m *multiLimited) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if err := m.rpm.acquire(ctx); err != nil {
		return "", err
	}
	if err := m.rpd.acquire(ctx); err != nil {
		return "", err
	}
	if m.tpm != nil {
		if err := m.tpm.acquireN(ctx, EstimateTokens(prompt+systemPrompt)); err != nil {
			return "", err
		}
	}
	return m.next.Query(ctx, prompt, systemPrompt)
}

// EstimateTokens is the rough chars/4 heuristic. Good enough for limiter
// accounting; never used for billing.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// -------- Retry with exponential backoff --------

// Retry retries Query up to maxAttempts with exponential backoff starting
// at baseDelay. Permanent errors and context cancellation stop the loop
// immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) HealthCheck(ctx context.Context) bool { return r.next.HealthCheck(ctx) }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.Query(ctx, prompt, systemPrompt)
		if err == nil {
			return resp, nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		time.Sleep(r.base * time.Duration(1<<i))
	}
	return "", last
}

// -------- Logging --------

// WithLogging logs request sizes and errors. Pass nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) HealthCheck(ctx context.Context) bool { return l.next.HealthCheck(ctx) }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	l.log.Printf("[llm] request %s: %d bytes", l.next.Name(), len(prompt)+len(systemPrompt))
	out, err := l.next.Query(ctx, prompt, systemPrompt)
	if err != nil {
		l.log.Printf("[llm] error %s: %v", l.next.Name(), err)
	}
	return out, err
}
