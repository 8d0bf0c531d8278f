package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"gitlab.com/docscanner/docscan"
)

// formatNames maps user-facing output formats onto scanimage --format
// values. bmp has no SANE front-end equivalent and falls back to pnm.
var formatNames = map[docscan.OutputFormat]string{
	docscan.FormatPDF:  "pdf",
	docscan.FormatJPEG: "jpeg",
	docscan.FormatJPG:  "jpeg",
	docscan.FormatPNG:  "png",
	docscan.FormatTIFF: "tiff",
	docscan.FormatBMP:  "pnm",
}

// fileExts per scanimage format value
var fileExts = map[string]string{
	"pdf":  "pdf",
	"jpeg": "jpg",
	"png":  "png",
	"tiff": "tiff",
	"pnm":  "pnm",
}

// colorModes maps color modes onto SANE --mode option values
var colorModes = map[docscan.ColorMode]string{
	docscan.ColorLineart: "Lineart",
	docscan.ColorGray:    "Gray",
	docscan.ColorColor:   "Color",
}

func formatName(f docscan.OutputFormat) (string, error) {
	n, ok := formatNames[f]
	if !ok {
		return "", errors.Errorf("unsupported output format %q", f)
	}
	return n, nil
}

func colorName(m docscan.ColorMode) (string, error) {
	n, ok := colorModes[m]
	if !ok {
		return "", errors.Errorf("unsupported color mode %q", m)
	}
	return n, nil
}

// sourceName maps a paper path onto the SANE --source option value
func sourceName(s docscan.SourceKind, duplex bool) string {
	if s == docscan.SourceFeeder {
		if duplex {
			return "ADF Duplex"
		}
		return "ADF"
	}
	return "Flatbed"
}

// mm renders a millimetre measurement the way scanimage expects it
func mm(v float64) string {
	return fmt.Sprintf("%.2fmm", v)
}

// areaArgs renders a scan window as the four geometry flags
func areaArgs(a docscan.Area) []string {
	return []string{
		"-l", mm(a.Left),
		"-t", mm(a.Top),
		"-x", mm(a.Width),
		"-y", mm(a.Height),
	}
}

// parseAreaValue decodes the staged "left,top,width,height" facet value
func parseAreaValue(v string) (docscan.Area, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return docscan.Area{}, errors.Errorf("area value %q must have four fields", v)
	}
	nums := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return docscan.Area{}, errors.Wrapf(err, "bad area field %q", p)
		}
		nums[i] = f
	}
	return docscan.Area{Left: nums[0], Top: nums[1], Width: nums[2], Height: nums[3]}, nil
}
