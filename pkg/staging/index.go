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

package staging

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// 📇 Index maps logical keys of a DONE directory to the first file holding them
type Index struct {
	dir     string
	entries map[string]string
}

// BuildIndex scans the regular files directly under dir. A directory that
// cannot be read yields an empty index.
func BuildIndex(ctx context.Context, dir string) *Index {
	idx := &Index{dir: dir, entries: make(map[string]string)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("dir", dir).Msg("indexing DONE directory failed")
		return idx
	}

	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		key := LogicalKey(e.Name())
		if _, ok := idx.entries[key]; !ok {
			idx.entries[key] = p
		}
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Int("keys", len(idx.entries)).Msg("DONE index built")
	return idx
}

// Lookup returns the DONE file holding key
func (i *Index) Lookup(key string) (string, bool) {
	p, ok := i.entries[key]
	return p, ok
}

// Record adds a file copied into the DONE directory during this run. The
// first file of a key stays authoritative.
func (i *Index) Record(path string) {
	key := LogicalKey(filepath.Base(path))
	if _, ok := i.entries[key]; !ok {
		i.entries[key] = path
	}
}

// Len returns the number of indexed keys
func (i *Index) Len() int {
	return len(i.entries)
}

// 🗃️ Indexes caches one Index per DONE directory for the length of a run
type Indexes struct {
	byDir map[string]*Index
}

// NewIndexes creates an empty cache
func NewIndexes() *Indexes {
	return &Indexes{byDir: make(map[string]*Index)}
}

// Get returns the index of dir, building it on first use. It returns false
// when dir does not exist and no index was built before.
func (c *Indexes) Get(ctx context.Context, dir string) (*Index, bool) {
	if idx, ok := c.byDir[dir]; ok {
		return idx, true
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, false
	}
	idx := BuildIndex(ctx, dir)
	c.byDir[dir] = idx
	return idx, true
}

const compareChunkSize = 1 << 20

// ⚖️ FilesDiffer compares two files by size, then chunk by chunk. Any error
// counts as a difference.
func FilesDiffer(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return true
	}
	ib, err := os.Stat(b)
	if err != nil {
		return true
	}
	if ia.Size() != ib.Size() {
		return true
	}

	fa, err := os.Open(a)
	if err != nil {
		return true
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return true
	}
	defer fb.Close()

	bufA := make([]byte, compareChunkSize)
	bufB := make([]byte, compareChunkSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return true
		}
		endA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		endB := errB == io.EOF || errB == io.ErrUnexpectedEOF
		if (errA != nil && !endA) || (errB != nil && !endB) {
			return true
		}
		if endA || endB {
			return endA != endB
		}
	}
}
