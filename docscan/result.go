package docscan

// FileInfo is one written page file
type FileInfo struct {
	Name string
	Size int64
}

// ScanResult is the ordered set of files produced by a completed scan.
// Insertion order is scan order; the slice may be empty (an empty feeder
// is a valid completion).
type ScanResult struct {
	Files []FileInfo
}

// Pages scanned
func (r *ScanResult) Pages() int {
	if r == nil {
		return 0
	}
	return len(r.Files)
}
