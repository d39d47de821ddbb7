package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the game server"`
	Watch   WatchCmd         `cmd:"" help:"Watch a running game's broadcast stream"`
	Deck    DeckCmd          `cmd:"" help:"Inspect and validate card deck files"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("cardtsar"),
		kong.Description("Party card game server: white cards, black prompts, a rotating tsar"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
