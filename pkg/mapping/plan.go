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

package mapping

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Copy types found in the type column
const (
	TypeCleva    = "CLEVA"
	TypeDSN      = "DSN"
	TypeClevaDSN = "CLEVADSN"
)

// DatePolicyLatest redirects a row to its most recent YYYYMMDD subdirectory
const DatePolicyLatest = "LATEST_YYYYMMDD"

// 📦 CopyTask copies Files from Source into Destination
type CopyTask struct {
	Source      string
	Destination string
	Files       []string // base names, sorted
	Purge       bool
}

// ⚙️ Options drives plan building
type Options struct {
	// Date is the processing date, the dated folder under WebdavRoot
	Date string
	// FullCopy selects CLEVADSN rows instead of DefaultType rows
	FullCopy    bool
	DefaultType string
	// Interfaces replaces every per-type source home when set
	Interfaces string
	// Homes maps a copy type to its source home
	Homes      map[string]string
	WebdavRoot string
}

// DatedRoot is <webdav root>/<date>
func (o Options) DatedRoot() string {
	return filepath.Join(o.WebdavRoot, o.Date)
}

// 🏗️ Builder turns mapping rows into copy tasks
type Builder struct {
	opts Options
}

// NewBuilder creates a plan builder
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// 🎯 Build returns one task per row with at least one file to copy. Rows whose
// source is missing, whose dated folder cannot be found or that match nothing
// are skipped. An unknown copy type without an interfaces override fails
// with ErrInvalid.
func (b *Builder) Build(ctx context.Context, table *Table) ([]CopyTask, error) {
	logger := zerolog.Ctx(ctx)

	wanted := strings.ToUpper(b.opts.DefaultType)
	if b.opts.FullCopy {
		wanted = TypeClevaDSN
	}

	var tasks []CopyTask
	for _, row := range table.Rows {
		if row.Type() != wanted {
			continue
		}

		task, ok, err := b.buildRow(ctx, row)
		if err != nil {
			return nil, err
		}
		if ok {
			tasks = append(tasks, task)
		}
	}

	logger.Debug().Int("tasks", len(tasks)).Msg("copy plan built")
	return tasks, nil
}

func (b *Builder) buildRow(ctx context.Context, row Row) (CopyTask, bool, error) {
	logger := zerolog.Ctx(ctx).With().Int("mapping_line", row.Line).Logger()

	base, err := b.sourceBase(row.Type())
	if err != nil {
		return CopyTask{}, false, err
	}

	source := row.Source()
	if !filepath.IsAbs(source) {
		source = filepath.Join(base, source)
	}
	destination := filepath.Join(b.opts.DatedRoot(), strings.TrimLeft(row.Destination(), "/"))

	if _, err := os.Stat(source); err != nil {
		logger.Warn().Str("source", source).Msg("source directory not found, row skipped")
		return CopyTask{}, false, nil
	}

	if row.DatePolicy() == DatePolicyLatest {
		latest, ok := LatestDatedDir(ctx, source)
		if !ok {
			logger.Debug().Str("source", source).Msg("no dated subdirectory, row skipped")
			return CopyTask{}, false, nil
		}
		source = latest
	}

	prefixes := NormalizePrefixes(row.Prefixes())
	masks := Masks(prefixes, row.Extensions())
	if len(masks) == 0 {
		logger.Debug().Str("source", source).Msg("no file pattern, row skipped")
		return CopyTask{}, false, nil
	}
	excludes := row.Excludes()

	logger.Info().
		Str("source", source).
		Str("destination", destination).
		Strs("include", masks).
		Strs("exclude", excludes).
		Msg("mapping row")

	files, err := MatchFiles(ctx, source, masks, excludes)
	if err != nil {
		return CopyTask{}, false, err
	}
	if len(files) == 0 {
		logger.Info().Str("source", source).Msg("no file to copy")
		return CopyTask{}, false, nil
	}

	logger.Info().Int("files", len(files)).Str("destination", destination).Msg("ready to copy")

	return CopyTask{
		Source:      source,
		Destination: destination,
		Files:       files,
		Purge:       row.Purge(),
	}, true, nil
}

func (b *Builder) sourceBase(copyType string) (string, error) {
	if b.opts.Interfaces != "" {
		return b.opts.Interfaces, nil
	}
	if home, ok := b.opts.Homes[copyType]; ok && home != "" {
		return home, nil
	}
	return "", errors.Errorf("%w: unknown copy type %q", ErrInvalid, copyType)
}

// NormalizePrefixes removes repeated prefixes and drops a bare * when a more
// specific prefix is present
func NormalizePrefixes(prefixes []string) []string {
	out := dedupe(prefixes)

	hasStar, hasOther := false, false
	for _, p := range out {
		if p == "*" {
			hasStar = true
		} else {
			hasOther = true
		}
	}
	if !hasStar || !hasOther {
		return out
	}

	specific := out[:0:0]
	for _, p := range out {
		if p != "*" {
			specific = append(specific, p)
		}
	}
	return specific
}

var repeatedStars = regexp.MustCompile(`\*{2,}`)

// Masks combines prefixes and extensions into file name patterns: their
// product when both are set, otherwise whichever is set. Runs of * collapse
// to one and duplicates are removed.
func Masks(prefixes, extensions []string) []string {
	var raw []string
	switch {
	case len(prefixes) > 0 && len(extensions) > 0:
		for _, p := range prefixes {
			for _, e := range extensions {
				raw = append(raw, p+e)
			}
		}
	case len(extensions) > 0:
		raw = extensions
	default:
		raw = prefixes
	}

	collapsed := make([]string, 0, len(raw))
	for _, m := range raw {
		collapsed = append(collapsed, repeatedStars.ReplaceAllString(m, "*"))
	}
	return dedupe(collapsed)
}

// MatchFiles globs each mask under dir, drops names matching an exclusion
// pattern and returns the sorted base names of the regular files left.
// Hidden files only match masks that start with a dot.
func MatchFiles(ctx context.Context, dir string, masks, excludes []string) ([]string, error) {
	logger := zerolog.Ctx(ctx)
	fsys := os.DirFS(dir)

	seen := make(map[string]bool)
	var files []string
	for _, mask := range masks {
		matches, err := doublestar.Glob(fsys, mask)
		if err != nil {
			logger.Warn().Err(err).Str("mask", mask).Msg("invalid file pattern")
			continue
		}

		for _, m := range matches {
			name := path.Base(m)
			if strings.HasPrefix(name, ".") && !strings.HasPrefix(path.Base(mask), ".") {
				continue
			}
			if excluded(ctx, name, excludes) {
				logger.Debug().Str("file", m).Strs("exclude", excludes).Msg("file excluded")
				continue
			}
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(m)))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !seen[name] {
				seen[name] = true
				files = append(files, name)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func excluded(ctx context.Context, name string, patterns []string) bool {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, name)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("pattern", p).Msg("invalid exclusion pattern")
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// 📅 LatestDatedDir returns the greatest direct subdirectory of dir named as
// a valid YYYYMMDD date
func LatestDatedDir(ctx context.Context, dir string) (string, bool) {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("listing dated directories failed")
		return "", false
	}

	latest := ""
	for _, e := range entries {
		name := e.Name()
		if !isDate(name) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.IsDir() {
			continue
		}
		if name > latest {
			latest = name
		}
	}

	if latest == "" {
		logger.Debug().Str("dir", dir).Msg("no dated subdirectory")
		return "", false
	}

	full := filepath.Join(dir, latest)
	logger.Info().Str("dir", full).Msg("latest dated subdirectory selected")
	return full, true
}

func isDate(name string) bool {
	if len(name) != 8 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := time.Parse("20060102", name)
	return err == nil
}

// 🔢 Priority orders tasks: DONE destinations first, then WAIT, then the rest
func Priority(task CopyTask) int {
	dest := strings.ReplaceAll(task.Destination, "\\", "/")
	switch {
	case strings.Contains(dest, "/DONE"):
		return 0
	case strings.Contains(dest, "/WAIT"):
		return 1
	default:
		return 2
	}
}

// SortByPriority sorts tasks by Priority, keeping mapping order within a priority
func SortByPriority(tasks []CopyTask) {
	SortBy(tasks, Priority)
}

// SortBy sorts tasks by priority (lowest first), keeping mapping order within a priority
func SortBy(tasks []CopyTask, priority func(CopyTask) int) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return priority(tasks[i]) < priority(tasks[j])
	})
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
