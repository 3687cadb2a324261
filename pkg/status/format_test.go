package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 🧪 TestDefaultFileFormatter tests the default file formatter implementation
func TestDefaultFileFormatter(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		status      FileStatus
		want        string
		description string
	}{
		{
			name:        "copied_file",
			file:        "A.par.txt",
			status:      StatusCopied,
			want:        "✨ Copied A.par.txt",
			description: "should show creation symbol for copied files",
		},
		{
			name:        "existing_file",
			file:        "A.par.txt",
			status:      StatusSkippedExisting,
			want:        "👍 Already present A.par.txt",
			description: "should show unchanged symbol for present files",
		},
		{
			name:        "done_file",
			file:        "A.par.txt",
			status:      StatusSkippedDone,
			want:        "📦 Already in DONE A.par.txt",
			description: "should show package symbol for DONE duplicates",
		},
		{
			name:        "stale_file",
			file:        "A.par.txt",
			status:      StatusRemovedStale,
			want:        "🗑️  Removed stale A.par.txt",
			description: "should show removal symbol for stale WAIT copies",
		},
		{
			name:        "purged_file",
			file:        "old.par.txt",
			status:      StatusPurged,
			want:        "🧹 Purged old.par.txt",
			description: "should show broom for purged files",
		},
		{
			name:        "failed_file",
			file:        "A.par",
			status:      StatusFailed,
			want:        "❌ Failed A.par",
			description: "should show error symbol for failed operations",
		},
		{
			name:        "empty_name",
			status:      StatusCopied,
			want:        "✨ Copied ",
			description: "should handle empty name gracefully",
		},
	}

	formatter := NewDefaultFileFormatter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatter.FormatFileOperation(tt.file, tt.status)
			assert.Equal(t, tt.want, got, tt.description)
		})
	}
}

// 🧪 TestProgressFormatting tests progress message formatting
func TestProgressFormatting(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		expected string
	}{
		{name: "zero_progress", current: 0, total: 10, expected: "⏳ Progress: 0/10 (0%)"},
		{name: "half_progress", current: 5, total: 10, expected: "⏳ Progress: 5/10 (50%)"},
		{name: "complete", current: 10, total: 10, expected: "✅ Progress: 10/10 (100%)"},
		{name: "empty_plan", current: 0, total: 0, expected: "✅ Progress: 0/0 (0%)"},
	}

	formatter := NewDefaultFileFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatter.FormatProgress(tt.current, tt.total))
		})
	}
}

func TestFormatError(t *testing.T) {
	formatter := NewDefaultFileFormatter()
	assert.Equal(t, "", formatter.FormatError(nil))
	assert.Equal(t, "❌ Error: boom", formatter.FormatError(errors.New("boom")))
}

func TestFileStatusString(t *testing.T) {
	assert.Equal(t, "copied", StatusCopied.String())
	assert.Equal(t, "unknown", FileStatus(99).String())
	assert.True(t, StatusSkippedDone.Skipped())
	assert.False(t, StatusCopied.Skipped())
}
