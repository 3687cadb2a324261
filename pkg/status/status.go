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
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus is the outcome of one planned file
type FileStatus int

const (
	StatusUnknown        FileStatus = iota
	StatusCopied                    // File copied to its destination
	StatusSkippedExisting           // Destination already holds the file
	StatusSkippedDone               // An equivalent file is already in DONE
	StatusRemovedStale              // Stale WAIT copy removed
	StatusPurged                    // Removed by a destination purge
	StatusFailed                    // Copy or removal failed
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusCopied:
		return "copied"
	case StatusSkippedExisting:
		return "exists"
	case StatusSkippedDone:
		return "in DONE"
	case StatusRemovedStale:
		return "stale removed"
	case StatusPurged:
		return "purged"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Skipped reports whether the file was left alone
func (s FileStatus) Skipped() bool {
	return s == StatusSkippedExisting || s == StatusSkippedDone
}

// 💾 FileManager performs the filesystem effects of a distribution run
type FileManager interface {
	// EnsureDir creates dir and its parents, reporting whether it was missing
	EnsureDir(ctx context.Context, dir string) (bool, error)
	// Exists reports whether path exists
	Exists(ctx context.Context, path string) (bool, error)
	// CopyFile copies src to dst keeping the permission bits and modification time
	CopyFile(ctx context.Context, src, dst string) error
	// Remove deletes one file
	Remove(ctx context.Context, path string) error
	// Purge deletes the regular files directly under dir and returns their names
	Purge(ctx context.Context, dir string) ([]string, error)
}

// 🔧 Manager is the os-backed FileManager
type Manager struct{}

var _ FileManager = (*Manager)(nil)

// 🏭 New creates a new file manager
func New() *Manager {
	return &Manager{}
}

func (m *Manager) EnsureDir(ctx context.Context, dir string) (bool, error) {
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return false, errors.Errorf("creating directory %s: not a directory", dir)
		}
		return false, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, errors.Errorf("creating directory: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("dir", dir).Msg("directory created")
	return true, nil
}

func (m *Manager) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

// CopyFile writes into a temporary sibling and renames it over dst, so a
// failed copy never leaves a partial file under the final name.
func (m *Manager) CopyFile(ctx context.Context, src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return errors.Errorf("reading source file info: %w", err)
	}

	tempPath := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp")
	dstFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		os.Remove(tempPath)
		return errors.Errorf("copying file content: %w", err)
	}

	if err := dstFile.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing destination file: %w", err)
	}

	if err := os.Chmod(tempPath, info.Mode().Perm()); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting destination mode: %w", err)
	}

	if err := os.Chtimes(tempPath, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting destination times: %w", err)
	}

	if err := os.Rename(tempPath, dst); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

func (m *Manager) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return errors.Errorf("deleting file: %w", err)
	}
	return nil
}

func (m *Manager) Purge(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("listing directory to purge: %w", err)
	}

	var removed []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, errors.Errorf("purging %s: %w", e.Name(), err)
		}
		removed = append(removed, e.Name())
	}

	zerolog.Ctx(ctx).Info().Str("dir", dir).Int("files", len(removed)).Msg("destination purged")
	return removed, nil
}
