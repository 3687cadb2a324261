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

package parfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// OriginalDir is the sibling directory receiving archived originals
	OriginalDir = "ORIGINAL_pars"
	// OriginalSuffix is appended to archived originals
	OriginalSuffix = ".original"

	updatedMarker = "_updated"
)

// 📦 ArchiveMode decides what happens when saving a patched file fails
type ArchiveMode string

const (
	// ArchiveLenient logs failures and reports success
	ArchiveLenient ArchiveMode = "lenient"
	// ArchiveStrict returns the first failure
	ArchiveStrict ArchiveMode = "strict"
)

// ParseArchiveMode validates a mode name; empty means lenient
func ParseArchiveMode(s string) (ArchiveMode, error) {
	switch ArchiveMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ArchiveLenient:
		return ArchiveLenient, nil
	case ArchiveStrict:
		return ArchiveStrict, nil
	default:
		return "", errors.Errorf("unknown archive mode %q", s)
	}
}

// UpdatedName inserts _updated before the extension of name, unless the stem
// already contains it in any case
func UpdatedName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if strings.Contains(strings.ToLower(stem), updatedMarker) {
		return name
	}
	return stem + updatedMarker + ext
}

// 💾 Archiver writes patched par files next to their original
type Archiver struct {
	// Archive moves the original into OriginalDir before writing the updated file
	Archive bool
	Mode    ArchiveMode
}

// Save writes lines to the _updated sibling of path and returns its path.
//
// With archiving on, the original is moved to ORIGINAL_pars/<name>.original.
// Otherwise the original is renamed to the updated name and overwritten.
func (a Archiver) Save(ctx context.Context, path string, lines []string) (string, error) {
	logger := zerolog.Ctx(ctx)

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	updated := filepath.Join(dir, UpdatedName(name))

	fail := func(err error) (string, error) {
		logger.Error().Err(err).Str("par", path).Str("updated", updated).Msg("saving par file failed")
		if a.Mode == ArchiveStrict {
			return updated, err
		}
		return updated, nil
	}

	if a.Archive {
		archiveDir := filepath.Join(dir, OriginalDir)
		if _, err := os.Stat(archiveDir); os.IsNotExist(err) {
			if err := os.MkdirAll(archiveDir, 0755); err != nil {
				if a.Mode == ArchiveStrict {
					return fail(errors.Errorf("creating archive directory: %w", err))
				}
				logger.Error().Err(err).Str("dir", archiveDir).Msg("creating archive directory failed")
			} else {
				logger.Info().Str("dir", archiveDir).Msg("archive directory created")
			}
		}

		archived := filepath.Join(archiveDir, name+OriginalSuffix)
		if err := os.Rename(path, archived); err != nil {
			return fail(errors.Errorf("archiving original: %w", err))
		}
		logger.Info().Str("par", path).Str("archived", archived).Msg("original archived")
	} else {
		if err := os.Rename(path, updated); err != nil {
			return fail(errors.Errorf("renaming original: %w", err))
		}
		logger.Info().Str("par", name).Str("updated", filepath.Base(updated)).Msg("original renamed")
	}

	if err := writeLines(updated, lines); err != nil {
		return fail(err)
	}

	return updated, nil
}

func writeLines(path string, lines []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Errorf("opening updated file: %w", err)
	}

	for _, line := range lines {
		if _, err := f.WriteString(line); err != nil {
			f.Close()
			return errors.Errorf("writing updated file: %w", err)
		}
	}

	if err := f.Close(); err != nil {
		return errors.Errorf("closing updated file: %w", err)
	}
	return nil
}
