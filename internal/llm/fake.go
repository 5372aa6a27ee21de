package llm

import (
	"context"
	"sync"
)

// FakeCall records one Query invocation.
type FakeCall struct {
	Prompt       string
	SystemPrompt string
}

// FakeClient is a deterministic Client for offline runs and tests. The
// zero value answers every query with "ok". Set Reply for a canned
// answer, ReplyFunc to compute one, or Err to fail every call.
type FakeClient struct {
	Reply     string
	ReplyFunc func(prompt, systemPrompt string) (string, error)
	Err       error
	Unhealthy bool

	mu    sync.Mutex
	calls []FakeCall
}

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) HealthCheck(ctx context.Context) bool { return !f.Unhealthy }

func (f *FakeClient) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Prompt: prompt, SystemPrompt: systemPrompt})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	if f.ReplyFunc != nil {
		return f.ReplyFunc(prompt, systemPrompt)
	}
	if f.Reply != "" {
		return f.Reply, nil
	}
	return "ok", nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}
