// Package app assembles the gateway: configuration, stores, the model
// client, the tool registry and the HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	"codesight/internal/gateway/config"
	"codesight/internal/gateway/handler"
	"codesight/internal/gateway/server"
	"codesight/internal/llm"
	llmclient "codesight/internal/llmClient"
	"codesight/internal/mcp"
	"codesight/internal/session"
)

type App struct {
	server *server.Server
	model  llm.Client
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Dependencies
	artifacts, err := initArtifactStore(cfg)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(session.NewStoreFromEnv())

	model, err := llmclient.FromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build model client: %w", err)
	}
	model = llm.Wrap(model, llm.Retry(3, 500*time.Millisecond))

	registry := mcp.NewRegistry()
	mcp.RegisterDefaultTools(registry, mcp.Host{Sessions: sessions})

	h := handler.New(sessions, model, artifacts, registry)

	// Routing & Server
	mux := server.NewMux(h)
	srv := server.New(cfg.Port, mux)

	return &App{
		server: srv,
		model:  model,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.model.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
