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
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func TestLogicalKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "JOB_A_endtime_20251223_101010.par.txt", want: "JOB_A.par.txt"},
		{in: "JOB_A_endtime_.txt", want: "JOB_A.par.txt"},
		{in: "JOB_A.par.txt", want: "JOB_A.par.txt"},
		{in: "X_endtime_1_endtime_2", want: "X.par.txt"},
		{in: "plain", want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LogicalKey(tt.in))
		})
	}
}

func TestTargetName(t *testing.T) {
	assert.Equal(t, "a.par.txt", TargetName("a.par"))
	assert.Equal(t, "a.TXT", TargetName("a.TXT"))
	assert.Equal(t, "a.txt", TargetName("a.txt"))
	assert.Equal(t, "a.txt.bak.txt", TargetName("a.txt.bak"))
}

func TestClassify(t *testing.T) {
	table := NewTable("/webdav/20251223", DefaultDomains())

	tests := []struct {
		name   string
		dir    string
		want   Classification
		staged bool
	}{
		{
			name:   "cco_wait",
			dir:    "/webdav/20251223/pars/CCO/WAIT",
			want:   Classification{Domain: "CCO", Kind: KindWait, WaitDir: "/webdav/20251223/pars/CCO/WAIT", DoneDir: "/webdav/20251223/pars/CCO/DONE"},
			staged: true,
		},
		{
			name:   "dsn_done_trailing_slash",
			dir:    "/webdav/20251223/pars/DSN/DONE/",
			want:   Classification{Domain: "DSN", Kind: KindDone, WaitDir: "/webdav/20251223/pars/DSN/WAIT", DoneDir: "/webdav/20251223/pars/DSN/DONE"},
			staged: true,
		},
		{
			name:   "backslashes_normalized",
			dir:    "\\webdav\\20251223\\pars\\CCO\\WAIT",
			want:   Classification{Domain: "CCO", Kind: KindWait, WaitDir: "/webdav/20251223/pars/CCO/WAIT", DoneDir: "/webdav/20251223/pars/CCO/DONE"},
			staged: true,
		},
		{
			name: "nested_under_wait_is_plain",
			dir:  "/webdav/20251223/pars/CCO/WAIT/sub",
		},
		{
			name: "other_date_is_plain",
			dir:  "/webdav/20251224/pars/CCO/WAIT",
		},
		{
			name: "plain",
			dir:  "/webdav/20251223/misc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Classify(tt.dir)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.staged, got.Staged())
		})
	}
}

func TestIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "JOB_endtime_1.par.txt"), []byte("1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "JOB_endtime_2.par.txt"), []byte("2"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "OTHER.par.txt"), []byte("o"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "SUB_endtime_x"), 0755))

	idx := BuildIndex(testContext(t), dir)
	assert.Equal(t, 2, idx.Len())

	p, ok := idx.Lookup("JOB.par.txt")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "JOB_endtime_1.par.txt"), p, "first file in name order wins")

	_, ok = idx.Lookup("SUB.par.txt")
	assert.False(t, ok, "directories are not indexed")

	idx.Record(filepath.Join(dir, "NEW_endtime_9.par.txt"))
	p, ok = idx.Lookup("NEW.par.txt")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "NEW_endtime_9.par.txt"), p)

	idx.Record(filepath.Join(dir, "JOB_endtime_3.par.txt"))
	p, _ = idx.Lookup("JOB.par.txt")
	assert.Equal(t, filepath.Join(dir, "JOB_endtime_1.par.txt"), p, "recording never replaces an entry")
}

func TestIndexesBuildOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.par.txt"), []byte("a"), 0644))

	cache := NewIndexes()
	idx, ok := cache.Get(testContext(t), dir)
	require.True(t, ok)
	assert.Equal(t, 1, idx.Len())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.par.txt"), []byte("b"), 0644))
	again, ok := cache.Get(testContext(t), dir)
	require.True(t, ok)
	assert.Same(t, idx, again)
	assert.Equal(t, 1, again.Len(), "files appearing later are only seen through Record")

	_, ok = cache.Get(testContext(t), filepath.Join(dir, "missing"))
	assert.False(t, ok)
}

func TestFilesDiffer(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0644))
		return p
	}

	big := bytes.Repeat([]byte("x"), compareChunkSize*2+10)
	bigOther := append([]byte(nil), big...)
	bigOther[compareChunkSize+5] = 'y'
	exact := bytes.Repeat([]byte("z"), compareChunkSize)

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "same_small", a: write("s1", []byte("hello")), b: write("s2", []byte("hello")), want: false},
		{name: "different_size", a: write("d1", []byte("hello")), b: write("d2", []byte("hell")), want: true},
		{name: "same_size_different_content", a: write("c1", []byte("hello")), b: write("c2", []byte("jello")), want: true},
		{name: "same_multi_chunk", a: write("m1", big), b: write("m2", big), want: false},
		{name: "differs_in_second_chunk", a: write("m3", big), b: write("m4", bigOther), want: true},
		{name: "exact_chunk_boundary", a: write("e1", exact), b: write("e2", exact), want: false},
		{name: "empty_files", a: write("z1", nil), b: write("z2", nil), want: false},
		{name: "missing_file", a: write("x1", []byte("a")), b: filepath.Join(dir, "nope"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilesDiffer(tt.a, tt.b))
		})
	}
}
