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
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 💾 deferredSink holds records in memory until a real writer is attached
type deferredSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
	out io.Writer
}

func (s *deferredSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out != nil {
		return s.out.Write(p)
	}
	return s.buf.Write(p)
}

func (s *deferredSink) attach(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out != nil {
		return errors.New("sink already attached")
	}

	if _, err := w.Write(s.buf.Bytes()); err != nil {
		return errors.Errorf("flushing buffered records: %w", err)
	}
	s.buf.Reset()
	s.out = w
	return nil
}

// 📁 ResolveDir picks the directory for the log file: the explicit one when it
// exists, then the batch reference directory when it exists, then the
// working directory.
func ResolveDir(explicit, reference string) string {
	if explicit != "" && isDir(explicit) {
		return explicit
	}
	if reference != "" && isDir(reference) {
		return reference
	}
	return "."
}

// FileName builds <prefix>-<program>-YYYY-MM-DD--HH-MM-SS.log
func FileName(prefix, program string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.log", prefix, program, now.Format("2006-01-02--15-04-05"))
}

// OpenFile opens (or creates) the log file in append mode
func OpenFile(dir, name string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Errorf("opening log file: %w", err)
	}
	return f, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
