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

// Package parfile reads, patches and saves batch parameter (.par) files.
//
// A par file is a list of KEY<TAB>VALUE lines closed by a FIN line. Files
// are loaded whole, patched in memory and written to a sibling _updated file.
package parfile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultMask selects par files directly under the par directory
	DefaultMask = "*.par"

	batchCodePrefix = "BATCH_CODE\t"
	terminator      = "FIN"
)

// 📄 File is a par file loaded in memory
type File struct {
	Path  string
	Lines []string // each line keeps its trailing newline, when it had one
}

// 📖 Read loads the par file at path. CRLF line endings are normalized.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading par file: %w", err)
	}

	return &File{Path: path, Lines: SplitLines(string(data))}, nil
}

// SplitLines splits text into lines that keep their "\n"
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Name returns the base name of the file
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// 🔍 BatchCode returns the value of the first BATCH_CODE line
func (f *File) BatchCode() (string, bool) {
	for _, line := range f.Lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToUpper(trimmed), batchCodePrefix) {
			continue
		}
		_, value, _ := strings.Cut(trimmed, "\t")
		value = strings.TrimSpace(value)
		return value, value != ""
	}
	return "", false
}

// 🔎 Find lists the files of dir matching mask, sorted by name
func Find(ctx context.Context, dir, mask string) ([]string, error) {
	if mask == "" {
		mask = DefaultMask
	}

	matches, err := doublestar.Glob(os.DirFS(dir), mask)
	if err != nil {
		return nil, errors.Errorf("globbing %s in %s: %w", mask, dir, err)
	}

	var files []string
	for _, m := range matches {
		path := filepath.Join(dir, filepath.FromSlash(m))
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Str("mask", mask).Int("files", len(files)).Msg("par files found")

	return files, nil
}
