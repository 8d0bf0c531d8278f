package clicmds

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"gitlab.com/docscanner/store"
)

// HistoryFlags for the history command
func HistoryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "journal",
			Usage: "path of the session journal",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "max records to show",
			Value: 20,
		},
	}
}

// History lists past scan sessions, newest first
func History(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	journal := store.NewJournal(cfg.Journal())
	if err := journal.Init(); err != nil {
		return cli.Exit(fmt.Sprintf("failed to open journal: %s", err), 1)
	}
	defer journal.Close()

	records, err := journal.List(ctx.Int("limit"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read journal: %s", err), 1)
	}
	if len(records) == 0 {
		fmt.Println("no recorded sessions")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s  %-9s  %d page(s)  %s\n",
			rec.StartedAt.Format("2006-01-02 15:04:05"), rec.ID, rec.Outcome, len(rec.Files), rec.Device)
		if rec.Failure != "" {
			fmt.Printf("    failure: %s\n", rec.Failure)
		}
	}
	return nil
}
