package status

import (
	"fmt"
)

// FileFormatter defines how file outcomes and progress are formatted
type FileFormatter interface {
	// FormatFileOperation formats one file outcome
	FormatFileOperation(name string, status FileStatus) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileOperation formats a file outcome with emojis
func (f *DefaultFileFormatter) FormatFileOperation(name string, status FileStatus) string {
	switch status {
	case StatusCopied:
		return fmt.Sprintf("✨ Copied %s", name)
	case StatusSkippedExisting:
		return fmt.Sprintf("👍 Already present %s", name)
	case StatusSkippedDone:
		return fmt.Sprintf("📦 Already in DONE %s", name)
	case StatusRemovedStale:
		return fmt.Sprintf("🗑️  Removed stale %s", name)
	case StatusPurged:
		return fmt.Sprintf("🧹 Purged %s", name)
	case StatusFailed:
		return fmt.Sprintf("❌ Failed %s", name)
	default:
		return fmt.Sprintf("❔ Unknown %s", name)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
