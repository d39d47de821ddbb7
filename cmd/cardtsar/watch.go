package main

import (
	"os"

	"github.com/cardtsar/cardtsar/cmd/cardtsar/shared"
	"github.com/cardtsar/cardtsar/internal/watch"
)

// WatchCmd renders a server's broadcast stream in the terminal
type WatchCmd struct {
	URL   string `kong:"default='ws://localhost:8080/ws',help='WebSocket URL of the game server'"`
	Debug bool   `kong:"help='Enable debug logging'"`
}

func (c *WatchCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx := shared.SetupSignalHandlerWithLogger(logger)

	w := watch.NewWatcher(c.URL, os.Stdout, logger)
	return w.Run(ctx)
}
