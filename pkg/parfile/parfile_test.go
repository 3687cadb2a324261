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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/parflow/pkg/rules"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestReadAndBatchCode(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantCode  string
		wantFound bool
		wantLines int
	}{
		{
			name:      "simple",
			content:   "BATCH_CODE\tB1\nK1\tV1\nFIN\n",
			wantCode:  "B1",
			wantFound: true,
			wantLines: 3,
		},
		{
			name:      "case_insensitive_and_trimmed",
			content:   "  batch_code\t B2 \r\nFIN",
			wantCode:  "B2",
			wantFound: true,
			wantLines: 2,
		},
		{
			name:      "first_wins",
			content:   "BATCH_CODE\tFIRST\nBATCH_CODE\tSECOND\n",
			wantCode:  "FIRST",
			wantFound: true,
			wantLines: 2,
		},
		{
			name:      "missing",
			content:   "K1\tV1\nFIN\n",
			wantLines: 2,
		},
		{
			name:      "space_separated_is_not_a_batch_code",
			content:   "BATCH_CODE B1\n",
			wantLines: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "a.par")
			writeFile(t, path, tt.content)

			f, err := Read(path)
			require.NoError(t, err)
			assert.Len(t, f.Lines, tt.wantLines)
			assert.Equal(t, "a.par", f.Name())

			code, ok := f.BatchCode()
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestSplitLinesKeepsNewlines(t *testing.T) {
	assert.Equal(t, []string{"a\n", "b\n", "c"}, SplitLines("a\r\nb\nc"))
	assert.Nil(t, SplitLines(""))
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.par"), "")
	writeFile(t, filepath.Join(dir, "a.par"), "")
	writeFile(t, filepath.Join(dir, "c.txt"), "")
	writeFile(t, filepath.Join(dir, OriginalDir, "a.par.original"), "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.par"), 0755))

	files, err := Find(testContext(t), dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.par"), filepath.Join(dir, "b.par")}, files)

	files, err = Find(testContext(t), filepath.Join(t.TempDir(), "missing"), DefaultMask)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPatch(t *testing.T) {
	base := []string{"BATCH_CODE\tB1\n", "K1\told\n", "K10\tother\n", "FIN\n"}

	tests := []struct {
		name        string
		lines       []string
		rules       []rules.Rule
		wantChanged bool
		want        []string
	}{
		{
			name:        "update_existing",
			lines:       base,
			rules:       []rules.Rule{{Num: "R001", Mode: rules.ModeUpdate, Key: "K1", Value: "new"}},
			wantChanged: true,
			want:        []string{"BATCH_CODE\tB1\n", "K1\tnew\n", "K10\tother\n", "FIN\n"},
		},
		{
			name:        "new_on_existing_key_replaces",
			lines:       base,
			rules:       []rules.Rule{{Num: "R001", Mode: rules.ModeNew, Key: "K10", Value: "x"}},
			wantChanged: true,
			want:        []string{"BATCH_CODE\tB1\n", "K1\told\n", "K10\tx\n", "FIN\n"},
		},
		{
			name:  "update_missing_key_skipped",
			lines: base,
			rules: []rules.Rule{{Num: "R001", Mode: rules.ModeUpdate, Key: "K2", Value: "v"}},
			want:  base,
		},
		{
			name:        "new_inserted_before_fin",
			lines:       base,
			rules:       []rules.Rule{{Num: "R001", Mode: rules.ModeNew, Key: "K2", Value: "v"}},
			wantChanged: true,
			want:        []string{"BATCH_CODE\tB1\n", "K1\told\n", "K10\tother\n", "K2\tv\n", "FIN\n"},
		},
		{
			name:  "new_without_fin",
			lines: []string{"K1\tv\n"},
			rules: []rules.Rule{{Num: "R001", Mode: rules.ModeNew, Key: "K2", Value: "v"}},
			want:  []string{"K1\tv\n"},
		},
		{
			name:        "fin_with_spaces_and_no_newline",
			lines:       []string{"K1\tv\n", "  FIN  "},
			rules:       []rules.Rule{{Num: "R001", Mode: rules.ModeNew, Key: "K2", Value: "v"}},
			wantChanged: true,
			want:        []string{"K1\tv\n", "K2\tv\n", "  FIN  "},
		},
		{
			name:  "key_match_is_case_sensitive",
			lines: []string{"k1\tv\n", "FIN\n"},
			rules: []rules.Rule{{Num: "R001", Mode: rules.ModeUpdate, Key: "K1", Value: "x"}},
			want:  []string{"k1\tv\n", "FIN\n"},
		},
		{
			name:  "rules_applied_in_order",
			lines: []string{"FIN\n"},
			rules: []rules.Rule{
				{Num: "R001", Mode: rules.ModeNew, Key: "A", Value: "1"},
				{Num: "R002", Mode: rules.ModeUpdate, Key: "A", Value: "2"},
			},
			wantChanged: true,
			want:        []string{"A\t2\n", "FIN\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]string(nil), tt.lines...)

			changed, got := Patch(testContext(t), "a.par", tt.lines, tt.rules)

			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, original, tt.lines, "input lines are not modified")
		})
	}
}

func TestUpdatedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a.par", want: "a_updated.par"},
		{in: "a_updated.par", want: "a_updated.par"},
		{in: "A_UPDATED.par", want: "A_UPDATED.par"},
		{in: "noext", want: "noext_updated"},
		{in: "a.b.par", want: "a.b_updated.par"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := UpdatedName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, UpdatedName(got), "idempotent")
		})
	}
}

func TestArchiverSave(t *testing.T) {
	lines := []string{"K\tV\n", "FIN\n"}

	t.Run("archive_on", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.par")
		writeFile(t, path, "K\told\nFIN\n")

		updated, err := Archiver{Archive: true, Mode: ArchiveStrict}.Save(testContext(t), path, lines)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "a_updated.par"), updated)
		assert.Equal(t, "K\tV\nFIN\n", readFile(t, updated))
		assert.Equal(t, "K\told\nFIN\n", readFile(t, filepath.Join(dir, OriginalDir, "a.par.original")))
		assert.NoFileExists(t, path)
	})

	t.Run("archive_off", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.par")
		writeFile(t, path, "K\told\nFIN\n")

		updated, err := Archiver{Mode: ArchiveStrict}.Save(testContext(t), path, lines)
		require.NoError(t, err)

		assert.Equal(t, "K\tV\nFIN\n", readFile(t, updated))
		assert.NoFileExists(t, path)
		assert.NoDirExists(t, filepath.Join(dir, OriginalDir))
	})

	t.Run("already_updated_name", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a_updated.par")
		writeFile(t, path, "K\told\nFIN\n")

		updated, err := Archiver{Mode: ArchiveStrict}.Save(testContext(t), path, lines)
		require.NoError(t, err)
		assert.Equal(t, path, updated)
		assert.Equal(t, "K\tV\nFIN\n", readFile(t, path))
	})

	t.Run("failure_modes", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "gone.par")

		_, err := Archiver{Archive: true, Mode: ArchiveLenient}.Save(testContext(t), missing, lines)
		assert.NoError(t, err, "lenient mode only logs")

		_, err = Archiver{Archive: true, Mode: ArchiveStrict}.Save(testContext(t), missing, lines)
		assert.Error(t, err, "strict mode returns the failure")

		_, err = Archiver{Mode: ArchiveStrict}.Save(testContext(t), missing, lines)
		assert.Error(t, err)
	})
}

func TestParseArchiveMode(t *testing.T) {
	for in, want := range map[string]ArchiveMode{"": ArchiveLenient, "Lenient": ArchiveLenient, " strict ": ArchiveStrict} {
		got, err := ParseArchiveMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseArchiveMode("loose")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loose"))
}
