package vanish_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rkuznets/vanish"
)

func TestState_IsTerminal(t *testing.T) {
	assert.False(t, vanish.StatePending.IsTerminal())
	assert.True(t, vanish.StateDone.IsTerminal())
	assert.True(t, vanish.StateError.IsTerminal())
}

func TestNewRecordID(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 30, 45, 0, time.UTC)

	id := vanish.NewRecordID(now)

	assert.True(t, strings.HasPrefix(id, "20260830T123045-"), "id %q should start with the timestamp", id)
	assert.Greater(t, len(id), len("20260830T123045-"))
}

func TestNewRecordID_Distinct(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)

	for range 100 {
		id := vanish.NewRecordID(now)
		assert.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}

func TestDownloadName(t *testing.T) {
	tests := []struct {
		name         string
		originalName string
		outputExt    string
		want         string
	}{
		{
			name:         "same container keeps extension",
			originalName: "report.pdf",
			outputExt:    ".pdf",
			want:         "report-converted.pdf",
		},
		{
			name:         "container change replaces extension",
			originalName: "notes.txt",
			outputExt:    ".pdf",
			want:         "notes-converted.pdf",
		},
		{
			name:         "no extension",
			originalName: "README",
			outputExt:    ".pdf",
			want:         "README-converted.pdf",
		},
		{
			name:         "empty output ext keeps original",
			originalName: "photo.jpg",
			outputExt:    "",
			want:         "photo-converted.jpg",
		},
		{
			name:         "path components stripped",
			originalName: "../../etc/passwd.txt",
			outputExt:    ".pdf",
			want:         "passwd-converted.pdf",
		},
		{
			name:         "windows path components stripped",
			originalName: `C:\Users\me\report.pdf`,
			outputExt:    ".pdf",
			want:         "report-converted.pdf",
		},
		{
			name:         "empty name falls back",
			originalName: "",
			outputExt:    ".pdf",
			want:         "download-converted.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vanish.DownloadName(tt.originalName, tt.outputExt))
		})
	}
}
