package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/gh-user-sync/internal/config"
	"github.com/Sternrassler/gh-user-sync/pkg/cache"
	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/Sternrassler/gh-user-sync/pkg/logging"
	"github.com/Sternrassler/gh-user-sync/pkg/pagination"
)

// app holds what every subcommand needs once the config is loaded.
type app struct {
	configFile string
	cfg        *config.Config
}

func (a *app) load() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	logging.Setup(cfg.LoggerConfig())
	return nil
}

// session is an open client, cache and synchronizer.
type session struct {
	client  *client.Client
	backend cache.Backend
	store   *cache.Store
	sync    *pagination.Synchronizer
}

func (a *app) open(ctx context.Context) (*session, error) {
	c, err := client.New(a.cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	backend, err := cache.Open(ctx, a.cfg.CacheBackendConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	store := cache.NewStore(backend, a.cfg.CacheKey())
	return &session{
		client:  c,
		backend: backend,
		store:   store,
		sync:    pagination.New(c, store),
	}, nil
}

func (s *session) Close() error {
	return s.backend.Close()
}
