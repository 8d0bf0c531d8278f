// Package device drives scanner hardware through the SANE scanimage(1)
// front end, owning the subprocess for the duration of one operation.
package device

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"gitlab.com/docscanner/docscan"
)

const defaultBin = "scanimage"

// SANEDriver discovers devices via scanimage -L and opens handles that
// stage configuration for a single scan invocation.
type SANEDriver struct {
	bin string
}

// NewSANEDriver using scanimage from PATH
func NewSANEDriver() *SANEDriver {
	return &SANEDriver{bin: defaultBin}
}

// deviceLine matches: device `epjitsu:libusb:001:004' is a FUJITSU ScanSnap S1300i sheetfed scanner
var deviceLine = regexp.MustCompile("^device `(.+)' is a (.+)$")

// List attached scanners
func (d *SANEDriver) List(ctx context.Context) ([]docscan.DeviceInfo, error) {
	out, err := exec.CommandContext(ctx, d.bin, "-L").Output()
	if err != nil {
		return nil, errors.Wrap(err, "scanimage -L failed")
	}
	return parseDeviceList(out), nil
}

// Open a device by exact id (or the first device when selector is empty).
// Source support is refined by probing the device option listing; a failed
// probe keeps the coarse guess from the type string.
func (d *SANEDriver) Open(ctx context.Context, selector string) (docscan.Device, error) {
	devices, err := d.List(ctx)
	if err != nil {
		return nil, err
	}

	var info docscan.DeviceInfo
	found := false
	for _, dev := range devices {
		if selector == "" || dev.ID == selector {
			info = dev
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Wrapf(docscan.ErrDeviceNotFound, "id %q", selector)
	}

	if out, err := exec.CommandContext(ctx, d.bin, "-d", info.ID, "-A").Output(); err == nil {
		if sources := parseSources(out); len(sources) > 0 {
			info.Sources = sources
		}
	} else {
		log.Warn().Err(err).Str("device", info.ID).Msg("option probe failed, keeping inferred sources")
	}

	return &SANEDevice{bin: d.bin, info: info, opts: make(map[docscan.Facet]string)}, nil
}

func parseDeviceList(out []byte) []docscan.DeviceInfo {
	devices := make([]docscan.DeviceInfo, 0)
	for _, line := range strings.Split(string(out), "\n") {
		m := deviceLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		devices = append(devices, parseDescription(m[1], m[2]))
	}
	return devices
}

// parseDescription splits "FUJITSU ScanSnap S1300i sheetfed scanner" into
// vendor, model and kind, inferring source support from the kind word.
func parseDescription(id, desc string) docscan.DeviceInfo {
	info := docscan.DeviceInfo{ID: id}

	fields := strings.Fields(desc)
	if len(fields) > 0 && fields[len(fields)-1] == "scanner" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) > 0 {
		info.Kind = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}
	if len(fields) > 0 {
		info.Vendor = fields[0]
		info.Model = strings.Join(fields[1:], " ")
	}

	switch {
	case strings.Contains(info.Kind, "sheetfed"):
		info.Sources = []docscan.SourceKind{docscan.SourceFeeder}
	case strings.Contains(info.Kind, "flatbed"):
		info.Sources = []docscan.SourceKind{docscan.SourceFlatbed}
	default:
		// unknown kinds get both until the option probe says otherwise
		info.Sources = []docscan.SourceKind{docscan.SourceFlatbed, docscan.SourceFeeder}
	}
	return info
}

// sourceOption matches the --source line of scanimage -A output, e.g.
//	--source Flatbed|ADF|ADF Duplex [Flatbed]
var sourceOption = regexp.MustCompile(`--source\s+(.+?)(\s+\[|$)`)

func parseSources(out []byte) []docscan.SourceKind {
	m := sourceOption.FindStringSubmatch(string(out))
	if m == nil {
		return nil
	}

	seen := make(map[docscan.SourceKind]bool)
	sources := make([]docscan.SourceKind, 0, 2)
	for _, opt := range strings.Split(m[1], "|") {
		var kind docscan.SourceKind
		lowered := strings.ToLower(strings.TrimSpace(opt))
		switch {
		case strings.Contains(lowered, "flatbed"):
			kind = docscan.SourceFlatbed
		case strings.Contains(lowered, "adf"), strings.Contains(lowered, "feeder"):
			kind = docscan.SourceFeeder
		default:
			continue
		}
		if !seen[kind] {
			seen[kind] = true
			sources = append(sources, kind)
		}
	}
	return sources
}
