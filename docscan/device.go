package docscan

import "context"

// Facet is one independently configurable device setting
type Facet int

const (
	FacetFormat Facet = iota
	FacetColorMode
	FacetResolution
	FacetArea
	FacetBrightness
	FacetContrast
	FacetPageLimit
	FacetDuplex
)

var facetNames = map[Facet]string{
	FacetFormat:     "format",
	FacetColorMode:  "color-mode",
	FacetResolution: "resolution",
	FacetArea:       "area",
	FacetBrightness: "brightness",
	FacetContrast:   "contrast",
	FacetPageLimit:  "page-limit",
	FacetDuplex:     "duplex",
}

func (f Facet) String() string {
	if n, ok := facetNames[f]; ok {
		return n
	}
	return "unknown"
}

// DeviceInfo describes one attached scanner
type DeviceInfo struct {
	ID      string
	Vendor  string
	Model   string
	Kind    string
	Sources []SourceKind
}

// SupportsSource reports whether the device exposes the given paper path
func (d DeviceInfo) SupportsSource(s SourceKind) bool {
	for _, have := range d.Sources {
		if have == s {
			return true
		}
	}
	return false
}

// OutputTarget is where page files land
type OutputTarget struct {
	Dir    string
	Format OutputFormat
}

// ProgressFn is called once per completed page
type ProgressFn func(page int, file FileInfo)

// Driver discovers and opens scanner devices
type Driver interface {
	List(ctx context.Context) ([]DeviceInfo, error)
	Open(ctx context.Context, selector string) (Device, error)
}

// Device is an open scanner handle. Configure stages one facet; Reset
// reverts one facet to its default. Scan blocks until the operation
// completes or ctx is cancelled, delivering progress per finished page.
type Device interface {
	Info() DeviceInfo
	Configure(f Facet, value string) error
	Reset(f Facet) error
	Scan(ctx context.Context, source SourceKind, target OutputTarget, onProgress ProgressFn) (*ScanResult, error)
	Close() error
}
