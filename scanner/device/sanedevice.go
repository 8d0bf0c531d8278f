package device

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gitlab.com/docscanner/docscan"
)

var ErrDeviceClosed = errors.New("device handle is closed")

// SANEDevice is one open scanner handle. Configure stages facet values for
// the next scanimage invocation; Scan launches the subprocess and kills it
// when the context is cancelled.
type SANEDevice struct {
	bin  string
	info docscan.DeviceInfo

	mu     sync.Mutex
	opts   map[docscan.Facet]string
	closed bool
}

// Info about the device
func (d *SANEDevice) Info() docscan.DeviceInfo {
	return d.info
}

// Configure stages one facet. The value is the user-facing string; mapping
// onto SANE option values happens here and an unmappable value fails just
// this facet.
func (d *SANEDevice) Configure(f docscan.Facet, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}

	switch f {
	case docscan.FacetFormat:
		if _, err := formatName(docscan.OutputFormat(value)); err != nil {
			return err
		}
	case docscan.FacetColorMode:
		if _, err := colorName(docscan.ColorMode(value)); err != nil {
			return err
		}
	case docscan.FacetResolution, docscan.FacetBrightness, docscan.FacetContrast, docscan.FacetPageLimit:
		if _, err := strconv.Atoi(value); err != nil {
			return errors.Wrapf(err, "facet %s wants an integer", f)
		}
	case docscan.FacetArea:
		if _, err := parseAreaValue(value); err != nil {
			return err
		}
	case docscan.FacetDuplex:
		if value != "true" && value != "false" {
			return errors.Errorf("facet %s wants true or false, got %q", f, value)
		}
	default:
		return errors.Errorf("unknown facet %d", f)
	}

	d.opts[f] = value
	return nil
}

// Reset reverts one staged facet to its default
func (d *SANEDevice) Reset(f docscan.Facet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	delete(d.opts, f)
	return nil
}

// Close the handle. Idempotent.
func (d *SANEDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.opts = make(map[docscan.Facet]string)
	return nil
}

// Scan runs one scanimage batch. Each --batch-print line on stdout is a
// finished page; cancellation kills the subprocess and surfaces as the
// context's error.
func (d *SANEDevice) Scan(ctx context.Context, source docscan.SourceKind, target docscan.OutputTarget, onProgress docscan.ProgressFn) (*docscan.ScanResult, error) {
	args, err := d.scanArgs(source, target)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(target.Dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	cmd := exec.CommandContext(ctx, d.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to attach to scanimage output")
	}

	log.Debug().Str("device", d.info.ID).Strs("args", args).Msg("launching scanimage")
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to launch scanimage")
	}

	result := &docscan.ScanResult{Files: make([]docscan.FileInfo, 0)}

	var g errgroup.Group
	g.Go(func() error {
		sc := bufio.NewScanner(stdout)
		page := 0
		for sc.Scan() {
			name := strings.TrimSpace(sc.Text())
			if name == "" {
				continue
			}
			page++
			fi := docscan.FileInfo{Name: name}
			if st, err := os.Stat(name); err == nil {
				fi.Size = st.Size()
			}
			result.Files = append(result.Files, fi)
			if onProgress != nil {
				onProgress(page, fi)
			}
		}
		return sc.Err()
	})

	readErr := g.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		return nil, errors.Wrapf(waitErr, "scanimage failed: %s", strings.TrimSpace(stderr.String()))
	}
	if readErr != nil {
		return nil, errors.Wrap(readErr, "failed reading scanimage output")
	}
	return result, nil
}

// scanArgs renders the staged facets plus the batch target into a
// scanimage argument list.
func (d *SANEDevice) scanArgs(source docscan.SourceKind, target docscan.OutputTarget) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}

	format := string(target.Format)
	if v, ok := d.opts[docscan.FacetFormat]; ok {
		format = v
	}
	fname, err := formatName(docscan.OutputFormat(format))
	if err != nil {
		return nil, err
	}

	args := []string{
		"-d", d.info.ID,
		"--format=" + fname,
		"--batch=" + filepath.Join(target.Dir, "page-%d."+fileExts[fname]),
		"--batch-print",
	}

	if v, ok := d.opts[docscan.FacetColorMode]; ok {
		name, _ := colorName(docscan.ColorMode(v))
		args = append(args, "--mode", name)
	}
	if v, ok := d.opts[docscan.FacetResolution]; ok {
		args = append(args, "--resolution", v)
	}
	if v, ok := d.opts[docscan.FacetArea]; ok {
		area, _ := parseAreaValue(v)
		args = append(args, areaArgs(area)...)
	}
	if v, ok := d.opts[docscan.FacetBrightness]; ok {
		args = append(args, "--brightness", v)
	}
	if v, ok := d.opts[docscan.FacetContrast]; ok {
		args = append(args, "--contrast", v)
	}
	if v, ok := d.opts[docscan.FacetPageLimit]; ok {
		args = append(args, "--batch-count", v)
	}

	duplex := d.opts[docscan.FacetDuplex] == "true"
	if source == docscan.SourceFeeder || len(d.info.Sources) > 1 {
		args = append(args, "--source", sourceName(source, duplex))
	}
	return args, nil
}
