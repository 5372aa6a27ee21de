package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"codesight/internal/llm"
)

const (
	defaultLocalBaseURL = "http://localhost:11434/v1"
	defaultLocalModel   = "llama3.1"
)

// LocalClient talks to a local OpenAI-compatible chat completions server
// (Ollama, llama.cpp, LM Studio, vLLM). It only focuses on the API call
// itself; retries, rate limiting and logging are applied via llm.Wrap.
type LocalClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string

	rlMu      sync.RWMutex
	rlLast    RateLimitHeaders
	rlHasLast bool
	rlHandler RateLimitHeaderHandler
}

// NewLocalClient creates a client for baseURL (".../v1"). Empty arguments
// fall back to LOCAL_LLM_BASE_URL, LOCAL_LLM_API_KEY and LOCAL_LLM_MODEL,
// then to the Ollama defaults.
func NewLocalClient(baseURL, apiKey, model string) *LocalClient {
	if baseURL == "" {
		baseURL = os.Getenv("LOCAL_LLM_BASE_URL")
	}
	if baseURL == "" {
		baseURL = defaultLocalBaseURL
	}
	if apiKey == "" {
		apiKey = os.Getenv("LOCAL_LLM_API_KEY")
	}
	if model == "" {
		model = os.Getenv("LOCAL_LLM_MODEL")
	}
	if model == "" {
		model = defaultLocalModel
	}
	return &LocalClient{
		// Local models can be slow on first load; allow for a cold start.
		http:    &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (c *LocalClient) Name() string { return "local:" + c.model }

func (c *LocalClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *LocalClient) SetRateLimitHeaderHandler(handler RateLimitHeaderHandler) {
	c.rlMu.Lock()
	defer c.rlMu.Unlock()
	c.rlHandler = handler
}

func (c *LocalClient) LastRateLimitHeaders() (RateLimitHeaders, bool) {
	c.rlMu.RLock()
	defer c.rlMu.RUnlock()
	return c.rlLast, c.rlHasLast
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Query sends systemPrompt and prompt as one chat turn and returns the
// model's text.
func (c *LocalClient) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var msgs []chatMessage
	if systemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: systemPrompt})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})

	b, _ := json.Marshal(chatRequest{Model: c.model, Messages: msgs})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	headers, found := parseRateLimitHeaders(resp.Header)
	if found {
		c.rlMu.Lock()
		c.rlLast, c.rlHasLast = headers, true
		handler := c.rlHandler
		c.rlMu.Unlock()
		if handler != nil {
			handler(headers)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		const max = 2048
		if len(body) > max {
			body = body[:max]
		}
		err := fmt.Errorf("local llm: unexpected status %s: %s", resp.Status, string(body))
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(body), `"code":"context_length_exceeded"`) {
			return "", llm.NewPermanentError(err)
		}
		if resp.StatusCode == http.StatusTooManyRequests && found {
			// Let the rate window pass before the retry layer fires again.
			c.waitForReset(ctx, HeaderRateLimitControlAdapter{}.NextWait(headers))
		}
		return "", err
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}

// HealthCheck probes the models listing endpoint.
func (c *LocalClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *LocalClient) waitForReset(ctx context.Context, wait time.Duration) {
	const maxWait = 30 * time.Second
	if wait <= 0 {
		return
	}
	if wait > maxWait {
		wait = maxWait
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
