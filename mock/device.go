package mock

import (
	"context"

	"gitlab.com/docscanner/docscan"
)

// Device mock with per-method function fields and call tracking
type Device struct {
	InfoFn     func() docscan.DeviceInfo
	InfoCalled bool

	ConfigureFn     func(f docscan.Facet, value string) error
	ConfigureCalled bool
	ConfigureCount  int

	ResetFn     func(f docscan.Facet) error
	ResetCalled bool
	ResetCount  int

	ScanFn     func(ctx context.Context, source docscan.SourceKind, target docscan.OutputTarget, onProgress docscan.ProgressFn) (*docscan.ScanResult, error)
	ScanCalled bool

	CloseFn     func() error
	CloseCalled bool
}

func (d *Device) Info() docscan.DeviceInfo {
	d.InfoCalled = true
	return d.InfoFn()
}

func (d *Device) Configure(f docscan.Facet, value string) error {
	d.ConfigureCalled = true
	d.ConfigureCount++
	return d.ConfigureFn(f, value)
}

func (d *Device) Reset(f docscan.Facet) error {
	d.ResetCalled = true
	d.ResetCount++
	return d.ResetFn(f)
}

func (d *Device) Scan(ctx context.Context, source docscan.SourceKind, target docscan.OutputTarget, onProgress docscan.ProgressFn) (*docscan.ScanResult, error) {
	d.ScanCalled = true
	return d.ScanFn(ctx, source, target, onProgress)
}

func (d *Device) Close() error {
	d.CloseCalled = true
	return d.CloseFn()
}

// Driver mock
type Driver struct {
	ListFn     func(ctx context.Context) ([]docscan.DeviceInfo, error)
	ListCalled bool

	OpenFn     func(ctx context.Context, selector string) (docscan.Device, error)
	OpenCalled bool
}

func (d *Driver) List(ctx context.Context) ([]docscan.DeviceInfo, error) {
	d.ListCalled = true
	return d.ListFn(ctx)
}

func (d *Driver) Open(ctx context.Context, selector string) (docscan.Device, error) {
	d.OpenCalled = true
	return d.OpenFn(ctx, selector)
}

// MakeMockDevice returns a device that scans three pages instantly
func MakeMockDevice() *Device {
	d := &Device{}

	d.InfoFn = func() docscan.DeviceInfo {
		return MakeMockInfo()
	}

	d.ConfigureFn = func(f docscan.Facet, value string) error {
		return nil
	}

	d.ResetFn = func(f docscan.Facet) error {
		return nil
	}

	d.ScanFn = func(ctx context.Context, source docscan.SourceKind, target docscan.OutputTarget, onProgress docscan.ProgressFn) (*docscan.ScanResult, error) {
		files := []docscan.FileInfo{
			{Name: "page-1.pdf", Size: 1024},
			{Name: "page-2.pdf", Size: 2048},
			{Name: "page-3.pdf", Size: 512},
		}
		for i, f := range files {
			if onProgress != nil {
				onProgress(i+1, f)
			}
		}
		return &docscan.ScanResult{Files: files}, nil
	}

	d.CloseFn = func() error {
		return nil
	}

	return d
}

// MakeMockDriver returns a driver listing one flatbed+feeder device and
// opening the supplied handle
func MakeMockDriver(dev docscan.Device) *Driver {
	d := &Driver{}

	d.ListFn = func(ctx context.Context) ([]docscan.DeviceInfo, error) {
		return []docscan.DeviceInfo{MakeMockInfo()}, nil
	}

	d.OpenFn = func(ctx context.Context, selector string) (docscan.Device, error) {
		return dev, nil
	}

	return d
}

// MakeMockInfo for a device supporting both paper paths
func MakeMockInfo() docscan.DeviceInfo {
	return docscan.DeviceInfo{
		ID:      "mock:usb:001",
		Vendor:  "Mockwell",
		Model:   "PageMaster 9000",
		Kind:    "multi-function",
		Sources: []docscan.SourceKind{docscan.SourceFlatbed, docscan.SourceFeeder},
	}
}
