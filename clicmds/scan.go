package clicmds

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"gitlab.com/docscanner/docscan"
	"gitlab.com/docscanner/scanner"
	"gitlab.com/docscanner/scanner/device"
	"gitlab.com/docscanner/store"
)

// ScanFlags for the scan command
func ScanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "device",
			Usage: "device id or name fragment to scan with (first device when empty)",
		},
		&cli.IntFlag{
			Name:  "resolution",
			Usage: "scan resolution in dpi (50-1200)",
			Value: 300,
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "paper source: flatbed or feeder",
			Value: "flatbed",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "output directory for page files",
			Value: ".",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "output format: pdf, jpeg, jpg, png, tiff or bmp",
			Value: "pdf",
		},
		&cli.StringFlag{
			Name:  "color",
			Usage: "color mode: lineart, gray or color",
			Value: "color",
		},
		&cli.IntFlag{
			Name:  "contrast",
			Usage: "contrast adjustment (-100 to 100)",
		},
		&cli.IntFlag{
			Name:  "brightness",
			Usage: "brightness adjustment (-100 to 100)",
		},
		&cli.StringFlag{
			Name:  "area",
			Usage: "scan area as left,top,width,height in millimetres",
		},
		&cli.BoolFlag{
			Name:  "duplex",
			Usage: "scan both sides (feeder only)",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "TOML profile to load defaults from",
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "hard deadline on the scan operation in seconds",
		},
		&cli.StringFlag{
			Name:  "sentinel",
			Usage: "path of the stop marker file",
		},
		&cli.StringFlag{
			Name:  "journal",
			Usage: "path of the session journal",
		},
	}
}

// Scan runs one scan session end to end
func Scan(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	opts := docscan.RequestOptions{
		Source:     cfg.Source,
		Resolution: cfg.Resolution,
		Color:      cfg.Color,
		Format:     cfg.Format,
		Duplex:     cfg.Duplex,
		OutputDir:  cfg.OutputDir,
	}
	if ctx.IsSet("contrast") {
		v := ctx.Int("contrast")
		opts.Contrast = &v
	}
	if ctx.IsSet("brightness") {
		v := ctx.Int("brightness")
		opts.Brightness = &v
	}
	if s := ctx.String("area"); s != "" {
		area, err := parseArea(s)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		opts.Area = area
	}

	req, err := docscan.NewScanRequest(opts)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	var journal store.Recorder
	j := store.NewJournal(cfg.Journal())
	if err := j.Init(); err != nil {
		log.Warn().Err(err).Msg("session journal unavailable, history will not be recorded")
	} else {
		defer j.Close()
		journal = j
	}

	sess := scanner.New(cfg, device.NewSANEDriver(), journal).
		SetProgress(func(page int, file docscan.FileInfo) {
			fmt.Printf("page %d: %s (%d bytes)\n", page, file.Name, file.Size)
		})

	result, err := sess.Run(context.Background(), req)
	switch {
	case docscan.IsCancelled(err):
		return cli.Exit(fmt.Sprintf("scan cancelled: %s", err), 130)
	case err != nil:
		return cli.Exit(fmt.Sprintf("scan failed: %s", err), 1)
	}

	fmt.Printf("\nscan complete, %d page(s):\n", result.Pages())
	for _, f := range result.Files {
		fmt.Printf("  %s (%d bytes)\n", f.Name, f.Size)
	}
	return nil
}

// loadConfig decodes the optional TOML profile, then lets explicitly set
// flags override it.
func loadConfig(ctx *cli.Context) (*docscan.Config, error) {
	cfg := &docscan.Config{}

	if path := ctx.String("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read profile")
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to decode profile")
		}
	}

	if ctx.IsSet("device") || cfg.Device == "" {
		cfg.Device = ctx.String("device")
	}
	if ctx.IsSet("out") || cfg.OutputDir == "" {
		cfg.OutputDir = ctx.String("out")
	}
	if ctx.IsSet("resolution") || cfg.Resolution == 0 {
		cfg.Resolution = ctx.Int("resolution")
	}
	if ctx.IsSet("source") || cfg.Source == "" {
		cfg.Source = ctx.String("source")
	}
	if ctx.IsSet("color") || cfg.Color == "" {
		cfg.Color = ctx.String("color")
	}
	if ctx.IsSet("format") || cfg.Format == "" {
		cfg.Format = ctx.String("format")
	}
	if ctx.IsSet("duplex") {
		cfg.Duplex = ctx.Bool("duplex")
	}
	if ctx.IsSet("timeout") {
		cfg.TimeoutSec = ctx.Int("timeout")
	}
	if ctx.IsSet("sentinel") {
		cfg.SentinelPath = ctx.String("sentinel")
	}
	if ctx.IsSet("journal") {
		cfg.JournalPath = ctx.String("journal")
	}
	return cfg, nil
}

func parseArea(s string) (*docscan.Area, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, &docscan.ValidationError{Field: "area", Reason: "expected left,top,width,height"}
	}
	nums := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, &docscan.ValidationError{Field: "area", Reason: fmt.Sprintf("bad measurement %q", p)}
		}
		nums[i] = f
	}
	return &docscan.Area{Left: nums[0], Top: nums[1], Width: nums[2], Height: nums[3]}, nil
}
