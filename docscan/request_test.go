package docscan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/docscanner/docscan"
)

func validOptions() docscan.RequestOptions {
	return docscan.RequestOptions{
		Source:     "flatbed",
		Resolution: 300,
		Color:      "color",
		Format:     "pdf",
		OutputDir:  "out",
	}
}

func TestNewScanRequestResolutionBounds(t *testing.T) {
	tests := []struct {
		name       string
		resolution int
		wantErr    bool
	}{
		{"below minimum", 49, true},
		{"at minimum", 50, false},
		{"typical", 300, false},
		{"at maximum", 1200, false},
		{"above maximum", 1201, true},
		{"zero", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			o.Resolution = tt.resolution
			req, err := docscan.NewScanRequest(o)
			if tt.wantErr {
				require.Error(t, err)
				require.IsType(t, &docscan.ValidationError{}, err)
				require.Nil(t, req)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.resolution, req.Resolution)
		})
	}
}

func TestNewScanRequestArea(t *testing.T) {
	tests := []struct {
		name    string
		area    docscan.Area
		wantErr bool
	}{
		{"zero width", docscan.Area{Left: 10, Top: 10, Width: 0, Height: 100}, true},
		{"zero height", docscan.Area{Left: 10, Top: 10, Width: 100, Height: 0}, true},
		{"negative left", docscan.Area{Left: -1, Top: 0, Width: 100, Height: 100}, true},
		{"negative top", docscan.Area{Left: 0, Top: -1, Width: 100, Height: 100}, true},
		{"origin corner", docscan.Area{Left: 0, Top: 0, Width: 210, Height: 297}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			o.Area = &tt.area
			_, err := docscan.NewScanRequest(o)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewScanRequestEnhancementBounds(t *testing.T) {
	for _, v := range []int{-101, 101} {
		o := validOptions()
		c := v
		o.Contrast = &c
		if _, err := docscan.NewScanRequest(o); err == nil {
			t.Fatalf("contrast %d should have been rejected", v)
		}
	}
	for _, v := range []int{-100, 0, 100} {
		o := validOptions()
		b := v
		o.Brightness = &b
		if _, err := docscan.NewScanRequest(o); err != nil {
			t.Fatalf("brightness %d should have been accepted: %s", v, err)
		}
	}
}

func TestNewScanRequestEnums(t *testing.T) {
	o := validOptions()
	o.Source = "tray"
	_, err := docscan.NewScanRequest(o)
	require.Error(t, err)

	o = validOptions()
	o.Color = "sepia"
	_, err = docscan.NewScanRequest(o)
	require.Error(t, err)

	o = validOptions()
	o.Format = "gif"
	_, err = docscan.NewScanRequest(o)
	require.Error(t, err)
}

func TestNewScanRequestDuplexNeedsFeeder(t *testing.T) {
	o := validOptions()
	o.Duplex = true
	if _, err := docscan.NewScanRequest(o); err == nil {
		t.Fatalf("duplex on flatbed should have been rejected")
	}

	o.Source = "feeder"
	if _, err := docscan.NewScanRequest(o); err != nil {
		t.Fatalf("duplex on feeder should be fine: %s", err)
	}
}

func TestScanRequestCopiesOptionalFields(t *testing.T) {
	o := validOptions()
	area := docscan.Area{Left: 1, Top: 2, Width: 3, Height: 4}
	contrast := 10
	o.Area = &area
	o.Contrast = &contrast

	req, err := docscan.NewScanRequest(o)
	require.NoError(t, err)

	// mutating the input options must not reach through to the request
	area.Width = 0
	contrast = 9000
	require.Equal(t, 3.0, req.Area.Width)
	require.Equal(t, 10, *req.Contrast)
}
