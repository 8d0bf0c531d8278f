package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"gitlab.com/docscanner/clicmds"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := cli.NewApp()
	app.Name = "docscanner"
	app.Version = "0.1"
	app.Usage = "drive a document scanner to completion, interruptibly"
	app.Commands = []*cli.Command{
		{
			Name:    "scan",
			Aliases: []string{"s"},
			Usage:   "run one scan session",
			Action:  clicmds.Scan,
			Flags:   clicmds.ScanFlags(),
		},
		{
			Name:    "devices",
			Aliases: []string{"d"},
			Usage:   "list attached scanner devices",
			Action:  clicmds.Devices,
			Flags:   clicmds.DevicesFlags(),
		},
		{
			Name:    "history",
			Aliases: []string{"hist"},
			Usage:   "show past scan sessions",
			Action:  clicmds.History,
			Flags:   clicmds.HistoryFlags(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}
