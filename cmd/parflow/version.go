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
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/walteh/parflow/cmd/parflow/commands"
)

// 🏷️ BuildInfo describes the running binary
type BuildInfo struct {
	Module    string
	Version   string
	Revision  string
	Time      string
	Modified  bool
	GoVersion string
	Platform  string
}

// readBuildInfo reads the module and VCS stamps embedded by the go tool
func readBuildInfo() BuildInfo {
	info := BuildInfo{
		Module:    "parflow",
		Version:   "dev",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if bi.Main.Path != "" {
		info.Module = bi.Main.Path
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.time":
			info.Time = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// ShortRevision is the first 12 characters of the commit, flagged when dirty
func (b BuildInfo) ShortRevision() string {
	rev := b.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev == "" {
		rev = "unknown"
	}
	if b.Modified {
		rev += "+dirty"
	}
	return rev
}

// String renders the build info with the batch programs this binary replaces
func (b BuildInfo) String() string {
	key := color.New(color.Faint).SprintFunc()

	var sb strings.Builder
	fmt.Fprintf(&sb, "🚀 %s version info\n", color.New(color.Bold, color.FgCyan).Sprint("parflow"))
	fmt.Fprintf(&sb, "  %s  %s\n", key("module  "), b.Module)
	fmt.Fprintf(&sb, "  %s  %s (%s)\n", key("version "), b.Version, b.ShortRevision())
	if b.Time != "" {
		fmt.Fprintf(&sb, "  %s  %s\n", key("built   "), b.Time)
	}
	fmt.Fprintf(&sb, "  %s  %s %s\n", key("go      "), b.GoVersion, b.Platform)
	fmt.Fprintf(&sb, "  %s  customize=%s distribute=%s\n", key("programs"), commands.ProgramCustomize, commands.ProgramDistribute)
	return sb.String()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), readBuildInfo())
			return err
		},
	}
}
