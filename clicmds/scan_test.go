package clicmds

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func scanContext(t *testing.T, args []string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("scan", flag.ContinueOnError)
	for _, f := range ScanFlags() {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestParseArea(t *testing.T) {
	area, err := parseArea("0, 10.5, 210, 297")
	require.NoError(t, err)
	require.Equal(t, 0.0, area.Left)
	require.Equal(t, 10.5, area.Top)
	require.Equal(t, 210.0, area.Width)
	require.Equal(t, 297.0, area.Height)

	_, err = parseArea("1,2,3")
	require.Error(t, err)
	_, err = parseArea("a,b,c,d")
	require.Error(t, err)
}

func TestLoadConfigFlagDefaults(t *testing.T) {
	ctx := scanContext(t, nil)
	cfg, err := loadConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, 300, cfg.Resolution)
	require.Equal(t, "flatbed", cfg.Source)
	require.Equal(t, "pdf", cfg.Format)
	require.Equal(t, "color", cfg.Color)
}

func TestLoadConfigProfileAndOverrides(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(profile, []byte(`
device = "gt-1500"
resolution = 600
source = "feeder"
timeout_sec = 120
`), 0644))

	// flags left at defaults defer to the profile
	ctx := scanContext(t, []string{"--config", profile})
	cfg, err := loadConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, "gt-1500", cfg.Device)
	require.Equal(t, 600, cfg.Resolution)
	require.Equal(t, "feeder", cfg.Source)
	require.Equal(t, 120, cfg.TimeoutSec)

	// explicitly set flags win over the profile
	ctx = scanContext(t, []string{"--config", profile, "--resolution", "150", "--source", "flatbed"})
	cfg, err = loadConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, 150, cfg.Resolution)
	require.Equal(t, "flatbed", cfg.Source)
	require.Equal(t, "gt-1500", cfg.Device)
}
