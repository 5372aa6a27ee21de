package llm

import "context"

// Client is the one surface the rest of the system talks to a model
// through. Query sends a user prompt with an optional system prompt and
// returns the model's text. HealthCheck reports reachability without
// spending tokens.
//
// Cross-cutting concerns (rate limiting, retries, logging) are applied
// via Middleware, not baked into implementations.
type Client interface {
	Name() string
	Query(ctx context.Context, prompt, systemPrompt string) (string, error)
	HealthCheck(ctx context.Context) bool
	Close() error
}

// PermanentError marks an error that will not resolve with retries,
// such as a prompt over the model's context window.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
