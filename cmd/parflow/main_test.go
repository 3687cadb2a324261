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
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/parflow/pkg/operation"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func logFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	return matches
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		args     func(t *testing.T, root string) []string
		wantCode int
		wantOut  string
		check    func(t *testing.T, root string)
	}{
		{
			name:     "version",
			args:     func(t *testing.T, root string) []string { return []string{"version"} },
			wantCode: operation.CodeOK,
			wantOut:  "distribute=distribution_par_webdav",
		},
		{
			name: "missing_date",
			args: func(t *testing.T, root string) []string {
				return []string{"distribute", "--ref-mapping", filepath.Join(root, "m.csv"), "--log-dir", root}
			},
			wantCode: operation.CodeBadArgs,
		},
		{
			name: "unknown_verbosity",
			args: func(t *testing.T, root string) []string {
				return []string{"customize", "-d", "20251223", "-v", "loud", "--log-dir", root}
			},
			wantCode: operation.CodeBadArgs,
		},
		{
			name: "missing_ref_mapping",
			args: func(t *testing.T, root string) []string {
				return []string{"distribute", "-d", "20251223", "--log-dir", root}
			},
			wantCode: operation.CodeBadArgs,
		},
		{
			name: "invalid_date",
			args: func(t *testing.T, root string) []string {
				return []string{"distribute", "-d", "20251340", "--ref-mapping", filepath.Join(root, "m.csv"), "--log-dir", root}
			},
			wantCode: operation.CodeBadArgs,
		},
		{
			name: "mapping_not_found",
			args: func(t *testing.T, root string) []string {
				return []string{"distribute", "-d", "20251223", "--ref-mapping", filepath.Join(root, "m.csv"), "--log-dir", root}
			},
			wantCode: operation.CodeMappingNotFound,
			check: func(t *testing.T, root string) {
				assert.Len(t, logFiles(t, root), 1, "log file is written even when the run fails")
			},
		},
		{
			name: "distribute",
			args: func(t *testing.T, root string) []string {
				writeFile(t, filepath.Join(root, "m.csv"), "type;source;destination;prefix01;extension01;purge\nCLEVA;in;pars/CCO/WAIT;*.par;;\n")
				writeFile(t, filepath.Join(root, "interfaces", "in", "A.par"), "a")
				return []string{
					"distribute", "-d", "20251223",
					"--ref-mapping", filepath.Join(root, "m.csv"),
					"--interfaces-path", filepath.Join(root, "interfaces"),
					"--webdav-path", filepath.Join(root, "webdav"),
					"--log-dir", root,
				}
			},
			wantCode: operation.CodeOK,
			wantOut:  "A.par.txt",
			check: func(t *testing.T, root string) {
				assert.FileExists(t, filepath.Join(root, "webdav", "20251223", "pars", "CCO", "WAIT", "A.par.txt"))
				files := logFiles(t, root)
				require.Len(t, files, 1)
				assert.Contains(t, filepath.Base(files[0]), "-distribution_par_webdav-")
			},
		},
		{
			name: "customize_forced",
			args: func(t *testing.T, root string) []string {
				writeFile(t, filepath.Join(root, "rules.csv"), "RULES_NUM;RULE_ACTIVE;BATCH_CODE;MODE;KEY;VALUE\nR001;TRUE;B1;update;K1;new\n")
				writeFile(t, filepath.Join(root, "pars", "A.par"), "BATCH_CODE\tB1\nK1\told\nFIN\n")
				return []string{
					"customize", "-d", "20251223",
					"--rules", filepath.Join(root, "rules.csv"),
					"--par-dir", filepath.Join(root, "pars"),
					"--properties", filepath.Join(root, "missing.properties"),
					"--force-feature",
					"--log-dir", root,
				}
			},
			wantCode: operation.CodeOK,
			check: func(t *testing.T, root string) {
				assert.FileExists(t, filepath.Join(root, "pars", "A_updated.par"))
				files := logFiles(t, root)
				require.Len(t, files, 1)
				assert.Contains(t, filepath.Base(files[0]), "-customizer_pars-")
			},
		},
		{
			name: "customize_disabled",
			args: func(t *testing.T, root string) []string {
				return []string{
					"customize", "-d", "20251223",
					"--properties", filepath.Join(root, "missing.properties"),
					"--log-dir", root,
				}
			},
			wantCode: operation.CodeOK,
			wantOut:  "feature disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			var stdout, stderr bytes.Buffer

			code := run(context.Background(), tt.args(t, root), &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code, "stderr: %s", stderr.String())

			if tt.wantOut != "" {
				assert.Contains(t, stdout.String(), tt.wantOut)
			}
			if tt.check != nil {
				tt.check(t, root)
			}
		})
	}
}

func TestShortRevision(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{name: "no_vcs", info: BuildInfo{}, want: "unknown"},
		{name: "long", info: BuildInfo{Revision: "0123456789abcdef"}, want: "0123456789ab"},
		{name: "dirty", info: BuildInfo{Revision: "abc", Modified: true}, want: "abc+dirty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.ShortRevision())
		})
	}
}
