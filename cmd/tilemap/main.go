package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	configPath := flag.String("config", "", "config file (default $TILEMAP_CONFIG or config/tilemap.toml)")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&inspectCmd{configPath: configPath}, "")
	subcommands.Register(&graphCmd{configPath: configPath}, "")
	subcommands.Register(&importCmd{configPath: configPath}, "")
	subcommands.Register(&serveCmd{configPath: configPath}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
