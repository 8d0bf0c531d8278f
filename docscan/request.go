package docscan

import "fmt"

// SourceKind selects the paper path the device scans from
type SourceKind string

const (
	// SourceFlatbed scans a single sheet from the glass
	SourceFlatbed SourceKind = "flatbed"
	// SourceFeeder scans a stack through the automatic document feeder
	SourceFeeder SourceKind = "feeder"
)

// ColorMode for the acquired image data
type ColorMode string

const (
	ColorLineart ColorMode = "lineart"
	ColorGray    ColorMode = "gray"
	ColorColor   ColorMode = "color"
)

// OutputFormat of the files written per page
type OutputFormat string

const (
	FormatPDF  OutputFormat = "pdf"
	FormatJPEG OutputFormat = "jpeg"
	FormatJPG  OutputFormat = "jpg"
	FormatPNG  OutputFormat = "png"
	FormatTIFF OutputFormat = "tiff"
	FormatBMP  OutputFormat = "bmp"
)

const (
	// MinResolution and MaxResolution bound the accepted DPI range
	MinResolution = 50
	MaxResolution = 1200
	// EnhancementBound caps contrast and brightness at +/- this value
	EnhancementBound = 100
)

// Area is a scan window in millimetres, offsets from the top-left corner
type Area struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// String renders the area as "left,top,width,height" in millimetres
func (a Area) String() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", a.Left, a.Top, a.Width, a.Height)
}

// RequestOptions are the raw, unvalidated knobs collected from CLI flags
// or a profile file before a ScanRequest is constructed.
type RequestOptions struct {
	Source     string
	Resolution int
	Color      string
	Format     string
	Area       *Area
	Contrast   *int
	Brightness *int
	Duplex     bool
	OutputDir  string
}

// ScanRequest is an immutable, fully validated scan order. It is only
// constructed by NewScanRequest and never mutated afterwards.
type ScanRequest struct {
	Source     SourceKind
	Resolution int
	Color      ColorMode
	Format     OutputFormat
	Area       *Area
	Contrast   *int
	Brightness *int
	Duplex     bool
	OutputDir  string
}

var validSources = map[SourceKind]bool{
	SourceFlatbed: true,
	SourceFeeder:  true,
}

var validColors = map[ColorMode]bool{
	ColorLineart: true,
	ColorGray:    true,
	ColorColor:   true,
}

var validFormats = map[OutputFormat]bool{
	FormatPDF:  true,
	FormatJPEG: true,
	FormatJPG:  true,
	FormatPNG:  true,
	FormatTIFF: true,
	FormatBMP:  true,
}

// NewScanRequest range-checks and normalizes the supplied options. Every
// field must pass before a request value exists at all, so downstream code
// never re-validates.
func NewScanRequest(o RequestOptions) (*ScanRequest, error) {
	source := SourceKind(o.Source)
	if !validSources[source] {
		return nil, &ValidationError{Field: "source", Reason: fmt.Sprintf("must be %q or %q, got %q", SourceFlatbed, SourceFeeder, o.Source)}
	}

	if o.Resolution < MinResolution || o.Resolution > MaxResolution {
		return nil, &ValidationError{Field: "resolution", Reason: fmt.Sprintf("must be within [%d,%d] dpi, got %d", MinResolution, MaxResolution, o.Resolution)}
	}

	color := ColorMode(o.Color)
	if !validColors[color] {
		return nil, &ValidationError{Field: "color", Reason: fmt.Sprintf("unknown color mode %q", o.Color)}
	}

	format := OutputFormat(o.Format)
	if !validFormats[format] {
		return nil, &ValidationError{Field: "format", Reason: fmt.Sprintf("unknown output format %q", o.Format)}
	}

	if o.Area != nil {
		a := o.Area
		if a.Left < 0 || a.Top < 0 {
			return nil, &ValidationError{Field: "area", Reason: "left and top offsets must be >= 0"}
		}
		if a.Width <= 0 || a.Height <= 0 {
			return nil, &ValidationError{Field: "area", Reason: "width and height must be > 0"}
		}
	}

	if err := checkEnhancement("contrast", o.Contrast); err != nil {
		return nil, err
	}
	if err := checkEnhancement("brightness", o.Brightness); err != nil {
		return nil, err
	}

	if o.Duplex && source != SourceFeeder {
		return nil, &ValidationError{Field: "duplex", Reason: "duplex requires the feeder source"}
	}

	outDir := o.OutputDir
	if outDir == "" {
		outDir = "."
	}

	return &ScanRequest{
		Source:     source,
		Resolution: o.Resolution,
		Color:      color,
		Format:     format,
		Area:       copyArea(o.Area),
		Contrast:   copyInt(o.Contrast),
		Brightness: copyInt(o.Brightness),
		Duplex:     o.Duplex,
		OutputDir:  outDir,
	}, nil
}

func checkEnhancement(field string, v *int) error {
	if v == nil {
		return nil
	}
	if *v < -EnhancementBound || *v > EnhancementBound {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be within [%d,%d], got %d", -EnhancementBound, EnhancementBound, *v)}
	}
	return nil
}

func copyArea(a *Area) *Area {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
