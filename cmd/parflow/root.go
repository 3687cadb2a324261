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
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/walteh/parflow/cmd/parflow/commands"
	"github.com/walteh/parflow/cmd/parflow/opts"
	"github.com/walteh/parflow/pkg/operation"
)

// newRootCmd builds the command tree around one set of shared options
func newRootCmd(root *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "parflow",
		Short:         "Batch par file customizer and webdav distributor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addRootFlags(cmd, root)

	cmd.AddCommand(commands.NewCustomizeCmd(root))
	cmd.AddCommand(commands.NewDistributeCmd(root))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, root *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&root.Date, "date", "d", "", "processing date (YYYYMMDD)")
	cmd.PersistentFlags().StringVarP(&root.Verbose, "verbose", "v", "info", "log level (debug, info, warning, error, critical)")
	cmd.PersistentFlags().StringVar(&root.LogDir, "log-dir", "", "directory of the log file")
	cmd.PersistentFlags().StringVarP(&root.ConfigFile, "config", "c", "", "config file (.yaml, .json or .hcl)")
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := &opts.RootOpts{
		Version: readBuildInfo().Version,
		Console: stdout,
	}

	cmd := newRootCmd(root)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	code := operation.ExitCodeOf(err)
	if err != nil {
		fmt.Fprintf(stderr, "%s %v (exit code %d)\n", color.New(color.FgRed).Sprint("❌"), err, code)
	}
	return code
}
