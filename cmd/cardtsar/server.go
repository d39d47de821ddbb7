package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/cardtsar/cardtsar/cmd/cardtsar/shared"
	"github.com/cardtsar/cardtsar/internal/server"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Config string `kong:"default='cardtsar.hcl',help='Path to the HCL configuration file'"`
	Addr   string `kong:"help='Listen address, overrides the configured one'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed for the game (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Seed != nil {
		cfg.Game.Seed = *c.Seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := shared.SetupLoggerWithLevel(cfg.Server.LogLevel)
	if c.Debug {
		logger = shared.SetupLogger(true)
	}

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	srv := server.NewServer(addr, logger)
	svc, err := server.NewService(srv, cfg, logger, quartz.NewReal())
	if err != nil {
		return err
	}
	srv.SetService(svc)

	logger.Info("Starting cardtsar server",
		"address", addr,
		"player_cards", cfg.Game.PlayerCards,
		"win_points", cfg.Game.WinPoints,
		"max_players", cfg.Game.MaxPlayers,
		"round_timeout", time.Duration(cfg.Game.RoundTimeoutSeconds)*time.Second,
		"decks", len(cfg.Decks))

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		svc.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
