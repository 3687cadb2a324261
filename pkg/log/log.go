// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 45 // Base width for filename
	kindWidth   = 6  // Width for the staging kind
	statusWidth = 15 // Width for status text
)

// 🎯 FileOperation represents a single file outcome for logging
type FileOperation struct {
	Name      string // Destination file name
	Kind      string // Staging kind of the destination (WAIT/DONE/-)
	Status    string // Operation status
	IsCopied  bool   // Whether the file was copied
	IsRemoved bool   // Whether a file was removed
	IsSkipped bool   // Whether the file was skipped
}

// 📦 TaskOperation represents one copy task for logging
type TaskOperation struct {
	Source      string // Source directory
	Destination string // Destination directory
	Files       int    // Number of planned files
}

// 🎯 Logger writes coloured status lines to the console and structured
// records to zerolog. Structured records are also kept for the log file,
// which usually does not exist yet when the first lines are written: they
// are buffered in memory until Attach is called.
type Logger struct {
	zlog    zerolog.Logger // console + file
	file    zerolog.Logger // file only, mirrors console status lines
	console io.Writer
	sink    *deferredSink
	mu      sync.Mutex
	task    *TaskOperation
	files   []FileOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level, runID string) *Logger {
	sink := &deferredSink{}

	consoleOut := zerolog.ConsoleWriter{Out: console, TimeFormat: time.DateTime}
	fileOut := zerolog.ConsoleWriter{Out: sink, NoColor: true, TimeFormat: time.DateTime}

	zlog := zerolog.New(zerolog.MultiLevelWriter(consoleOut, fileOut)).
		Level(level).With().Timestamp().Str("run_id", runID).Logger()
	file := zerolog.New(fileOut).
		Level(level).With().Timestamp().Str("run_id", runID).Logger()

	return &Logger{
		zlog:    zlog,
		file:    file,
		console: console,
		sink:    sink,
	}
}

// 📎 Attach flushes everything logged so far into w and sends all further
// records straight to it.
func (l *Logger) Attach(w io.Writer) error {
	if err := l.sink.attach(w); err != nil {
		return errors.Errorf("attaching log sink: %w", err)
	}
	return nil
}

// Zerolog returns the structured logger
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// Lookup returns the logger stored in ctx, if any
func Lookup(ctx context.Context) (*Logger, bool) {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	return logger, ok
}

// 🎯 NewContext adds the logger to context, along with its zerolog logger so
// that zerolog.Ctx works for packages that only need structured records.
func NewContext(ctx context.Context, l *Logger) context.Context {
	ctx = l.zlog.WithContext(ctx)
	return context.WithValue(ctx, contextKey{}, l)
}

// ParseLevel maps the batch verbosity names onto zerolog levels.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "critical", "fatal":
		return zerolog.FatalLevel, nil
	default:
		return zerolog.NoLevel, errors.Errorf("unknown log level %q", s)
	}
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsRemoved:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsCopied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsSkipped:
		symbol = '•'
		symbolColor = color.FgCyan
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	var kindColor color.Attribute
	switch op.Kind {
	case "DONE":
		kindColor = color.FgGreen
	case "WAIT":
		kindColor = color.FgYellow
	default:
		kindColor = color.FgBlue
	}

	kind := op.Kind
	if kind == "" {
		kind = "-"
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Name),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, kind)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.files = append(l.files, op)

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	l.file.Info().
		Str("file", op.Name).
		Str("kind", op.Kind).
		Str("status", op.Status).
		Bool("is_copied", op.IsCopied).
		Bool("is_removed", op.IsRemoved).
		Bool("is_skipped", op.IsSkipped).
		Msg("file operation")
}

// 📝 StartTask starts a new copy task
func (l *Logger) StartTask(ctx context.Context, op TaskOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.task = &op
	l.files = nil

	fmt.Fprintf(l.console, "[copying %s]\n",
		color.New(color.FgCyan).Sprint(op.Destination))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%d files", op.Files))

	l.file.Info().
		Str("source", op.Source).
		Str("destination", op.Destination).
		Int("files", op.Files).
		Msg("starting copy task")
}

// 📝 EndTask ends the current copy task
func (l *Logger) EndTask(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.task == nil {
		return
	}

	l.file.Info().
		Str("source", l.task.Source).
		Str("destination", l.task.Destination).
		Int("files", len(l.files)).
		Msg("copy task complete")

	l.task = nil
	l.files = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("parflow")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.file.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.file.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.file.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.file.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.file.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

// Raw writes pre-rendered text (tables, banners) to the console only
func (l *Logger) Raw(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.console, text)
}
