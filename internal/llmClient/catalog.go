package llmclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"codesight/internal/llm"
)

var ErrUnknownProvider = errors.New("llmclient: unknown provider")

// Factory builds a bare client; the catalog layers rate limits on top.
type Factory func(ctx context.Context) (llm.Client, error)

type RateLimitConfig struct {
	RPM   int
	RPD   int
	TPM   int
	RPS   float64
	Burst int
}

type Registration struct {
	Provider  string
	RateLimit *RateLimitConfig
	Factory   Factory
}

// Catalog maps provider names to client factories. Registering the same
// provider twice replaces the earlier entry.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Registration
	order   []string
}

func NewCatalog() *Catalog {
	return &Catalog{entries: map[string]Registration{}}
}

func (c *Catalog) Register(reg Registration) error {
	if reg.Factory == nil {
		return fmt.Errorf("register provider: factory is nil")
	}
	name := strings.ToLower(strings.TrimSpace(reg.Provider))
	if name == "" {
		return fmt.Errorf("register provider: name is required")
	}
	reg.Provider = name

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[name]; !ok {
		c.order = append(c.order, name)
	}
	c.entries[name] = reg
	return nil
}

// Providers lists registered provider names in registration order.
func (c *Catalog) Providers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Build creates a client for the provider with its registered rate limits
// applied.
func (c *Catalog) Build(ctx context.Context, provider string) (llm.Client, error) {
	name := strings.ToLower(strings.TrimSpace(provider))

	c.mu.RLock()
	reg, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	cli, err := reg.Factory(ctx)
	if err != nil {
		return nil, err
	}
	if rl := reg.RateLimit; rl != nil {
		if rl.RPM > 0 || rl.RPD > 0 || rl.TPM > 0 {
			cli = llm.MultiLimit(rl.RPM, rl.RPD, rl.TPM)(cli)
		}
		if rl.RPS > 0 || rl.Burst > 0 {
			cli = llm.RateLimit(rl.RPS, rl.Burst)(cli)
		}
	}
	return cli, nil
}

// Default returns a catalog with the built-in providers: "local" (an
// OpenAI-compatible server on this machine), "gemini", and "fake" for
// offline runs.
func Default() *Catalog {
	c := NewCatalog()
	c.Register(Registration{
		Provider: "local",
		Factory: func(ctx context.Context) (llm.Client, error) {
			return NewLocalClient("", "", ""), nil
		},
	})
	c.Register(Registration{
		Provider: "gemini",
		// Free tier limits; raise via a custom registration when on a
		// paid tier.
		RateLimit: &RateLimitConfig{RPM: 15, RPS: 0.25, Burst: 1},
		Factory: func(ctx context.Context) (llm.Client, error) {
			return NewGeminiClient(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))
		},
	})
	c.Register(Registration{
		Provider: "fake",
		Factory: func(ctx context.Context) (llm.Client, error) {
			return &llm.FakeClient{}, nil
		},
	})
	return c
}

// FromEnv builds the provider named by MODEL_PROVIDER, defaulting to
// "local".
func FromEnv(ctx context.Context) (llm.Client, error) {
	provider := os.Getenv("MODEL_PROVIDER")
	if provider == "" {
		provider = "local"
	}
	return Default().Build(ctx, provider)
}
