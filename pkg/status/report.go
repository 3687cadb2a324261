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

package status

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 Entry is one tracked file outcome
type Entry struct {
	Destination string // destination directory
	Name        string // destination file name
	Status      FileStatus
	Err         error
}

// 📈 Report tracks file outcomes of a run
type Report struct {
	formatter FileFormatter

	mu        sync.Mutex
	entries   []Entry
	counts    map[FileStatus]int
	total     int
	processed int
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{
		formatter: NewDefaultFileFormatter(),
		counts:    make(map[FileStatus]int),
	}
}

// Start records how many files the plan holds
func (r *Report) Start(ctx context.Context, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.processed = 0
	zerolog.Ctx(ctx).Debug().Int("total", total).Msg(r.formatter.FormatProgress(0, total))
}

// Track records one outcome. Purges and stale removals do not count as
// processed plan files.
func (r *Report) Track(ctx context.Context, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)
	r.counts[e.Status]++

	logger := zerolog.Ctx(ctx)
	msg := r.formatter.FormatFileOperation(e.Name, e.Status)
	if e.Err != nil {
		msg = r.formatter.FormatError(e.Err)
	}
	logger.Debug().Str("dir", e.Destination).Str("file", e.Name).Str("status", e.Status.String()).Msg(msg)

	switch e.Status {
	case StatusCopied, StatusSkippedExisting, StatusSkippedDone, StatusFailed:
		r.processed++
		logger.Debug().Int("processed", r.processed).Int("total", r.total).Msg(r.formatter.FormatProgress(r.processed, r.total))
	}
}

// Count returns how many entries have status s
func (r *Report) Count(s FileStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[s]
}

// Skipped returns the number of files left alone
func (r *Report) Skipped() int {
	return r.Count(StatusSkippedExisting) + r.Count(StatusSkippedDone)
}

// Entries returns a copy of the tracked outcomes
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// 🖼️ Render draws the per-destination summary table
func (r *Report) Render() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type row struct {
		counts map[FileStatus]int
	}
	var order []string
	byDir := make(map[string]*row)
	for _, e := range r.entries {
		rw, ok := byDir[e.Destination]
		if !ok {
			rw = &row{counts: make(map[FileStatus]int)}
			byDir[e.Destination] = rw
			order = append(order, e.Destination)
		}
		rw.counts[e.Status]++
	}

	columns := []FileStatus{StatusCopied, StatusSkippedExisting, StatusSkippedDone, StatusRemovedStale, StatusPurged, StatusFailed}

	header := []string{"destination"}
	for _, c := range columns {
		header = append(header, c.String())
	}
	data := pterm.TableData{header}

	for _, dir := range order {
		line := []string{shortDir(dir)}
		for _, c := range columns {
			line = append(line, fmt.Sprint(byDir[dir].counts[c]))
		}
		data = append(data, line)
	}

	total := []string{"total"}
	for _, c := range columns {
		total = append(total, fmt.Sprint(r.counts[c]))
	}
	data = append(data, total)

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", errors.Errorf("rendering report: %w", err)
	}
	return out, nil
}

// shortDir keeps the last four path elements of a destination
func shortDir(dir string) string {
	parts := []string{}
	for i := 0; i < 4 && dir != "" && dir != "." && dir != string(filepath.Separator); i++ {
		parts = append([]string{filepath.Base(dir)}, parts...)
		dir = filepath.Dir(dir)
	}
	return filepath.Join(parts...)
}
