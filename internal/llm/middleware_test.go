package llm

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"
)

type tagging struct {
	next Client
	tag  string
	seen *[]string
}

func (t *tagging) Name() string { return t.next.Name() }
func (t *tagging) HealthCheck(ctx context.Context) bool { return t.next.HealthCheck(ctx) }
func (t *tagging) Close() error { return t.next.Close() }
func (t *tagging) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	*t.seen = append(*t.seen, t.tag)
	return t.next.Query(ctx, prompt, systemPrompt)
}

func TestWrapAppliesLeftToRight(t *testing.T) {
	var seen []string
	mw := func(tag string) Middleware {
		return func(next Client) Client {
			return &tagging{next: next, tag: tag, seen: &seen}
		}
	}
	c := Wrap(&FakeClient{}, mw("outer"), mw("inner"))
	if _, err := c.Query(context.Background(), "p", ""); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "outer" || seen[1] != "inner" {
		t.Fatalf("order = %v, want [outer inner]", seen)
	}
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	attempts := 0
	fake := &FakeClient{ReplyFunc: func(prompt, systemPrompt string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "fine", nil
	}}
	c := Wrap(fake, Retry(5, time.Millisecond))
	out, err := c.Query(context.Background(), "p", "")
	if err != nil {
		t.Fatal(err)
	}
	if out != "fine" || attempts != 3 {
		t.Fatalf("out=%q attempts=%d, want fine after 3", out, attempts)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	fake := &FakeClient{ReplyFunc: func(prompt, systemPrompt string) (string, error) {
		return "", NewPermanentError(errors.New("prompt too large"))
	}}
	c := Wrap(fake, Retry(5, time.Millisecond))
	_, err := c.Query(context.Background(), "p", "")
	var pErr *PermanentError
	if !errors.As(err, &pErr) {
		t.Fatalf("got %v, want PermanentError", err)
	}
	if n := len(fake.Calls()); n != 1 {
		t.Fatalf("attempts = %d, want 1", n)
	}
}

func TestRetryStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &FakeClient{Err: errors.New("transient")}
	c := Wrap(fake, Retry(5, time.Millisecond))
	_, err := c.Query(ctx, "p", "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if n := len(fake.Calls()); n != 1 {
		t.Fatalf("attempts = %d, want 1", n)
	}
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	c := Wrap(&FakeClient{}, RateLimit(0.001, 1))
	defer c.Close()

	if _, err := c.Query(context.Background(), "first", ""); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Query(ctx, "second", ""); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
}

func TestMultiLimitDisabledPassesThrough(t *testing.T) {
	c := Wrap(&FakeClient{Reply: "through"}, MultiLimit(0, 0, 0))
	out, err := c.Query(context.Background(), "p", "s")
	if err != nil || out != "through" {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestWithLoggingWritesRequestAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	c := Wrap(&FakeClient{Err: errors.New("boom")}, WithLogging(logger))
	if _, err := c.Query(context.Background(), "p", "s"); err == nil {
		t.Fatal("expected an error")
	}
	out := buf.String()
	if !strings.Contains(out, "request") || !strings.Contains(out, "boom") {
		t.Fatalf("log output missing entries: %q", out)
	}
}

func TestEstimateTokensNeverZero(t *testing.T) {
	if EstimateTokens("") != 1 {
		t.Fatal("empty text must still cost one token")
	}
	if got := EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
}
