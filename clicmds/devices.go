package clicmds

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"gitlab.com/docscanner/scanner/device"
)

// DevicesFlags for the devices command
func DevicesFlags() []cli.Flag {
	return []cli.Flag{}
}

// Devices lists attached scanners
func Devices(ctx *cli.Context) error {
	driver := device.NewSANEDriver()
	devices, err := driver.List(context.Background())
	if err != nil {
		return cli.Exit(fmt.Sprintf("device discovery failed: %s", err), 1)
	}
	if len(devices) == 0 {
		fmt.Println("no scanner devices found")
		return nil
	}

	fmt.Printf("%-36s %-12s %-28s %s\n", "ID", "VENDOR", "MODEL", "SOURCES")
	for _, d := range devices {
		sources := make([]string, 0, len(d.Sources))
		for _, s := range d.Sources {
			sources = append(sources, string(s))
		}
		fmt.Printf("%-36s %-12s %-28s %s\n", d.ID, d.Vendor, d.Model, strings.Join(sources, ","))
	}
	return nil
}
