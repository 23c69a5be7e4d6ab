package vanish

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Record.
type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
	StateError   State = "error"
)

// IsTerminal reports whether the conversion has settled. A terminal record
// only changes again when cleanup removes it from the registry.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateError
}

// Record is the per-upload bookkeeping entry. It tracks the storage handles
// reserved for the original and the processed bytes, and the lifecycle state
// the status and download endpoints report on.
type Record struct {
	// ID is unique while the record lives in the registry and is never
	// reused after removal.
	ID string
	// Variant names the conversion endpoint the upload was accepted on.
	Variant string
	// OriginalName is the user-supplied filename; the download filename is
	// derived from it.
	OriginalName string
	// OriginalStorageKey addresses the as-uploaded bytes.
	OriginalStorageKey string
	// StorageKey is reserved at creation for the processed bytes and never
	// reused for another record.
	StorageKey string
	State      State
	// GeneratedAt is set at creation and refreshed when conversion succeeds.
	GeneratedAt time.Time
}

// NewRecordID returns a fresh record id: creation timestamp plus a random
// suffix. Collisions are treated as negligible, not formally prevented.
func NewRecordID(now time.Time) string {
	return now.UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}

// DownloadNameMarker is inserted before the extension when deriving the
// attachment filename for a converted file.
const DownloadNameMarker = "-converted"

// DownloadName derives the attachment filename from the uploaded filename.
// "report.pdf" becomes "report-converted.pdf"; when the conversion changes
// the container format, the extension is replaced by outputExt.
func DownloadName(originalName, outputExt string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." {
		stem = "download"
	}
	if outputExt == "" {
		outputExt = ext
	}
	return stem + DownloadNameMarker + outputExt
}
