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

package commands

import (
	"github.com/spf13/cobra"

	"github.com/walteh/parflow/cmd/parflow/opts"
	"github.com/walteh/parflow/pkg/config"
	"github.com/walteh/parflow/pkg/operation"
	"github.com/walteh/parflow/pkg/status"
)

// ProgramDistribute names the distributor in log file names
const ProgramDistribute = "distribution_par_webdav"

// NewDistributeCmd creates the distribute command
func NewDistributeCmd(root *opts.RootOpts) *cobra.Command {
	var o config.Overrides

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Copy mapped files into the dated webdav tree",
		Long: `Distribute copies the files named by the mapping table into the webdav tree of the date.
It will:
1. Load the mapping table and build the copy plan
2. Copy DONE destinations first, then WAIT, then the rest
3. Skip WAIT copies of jobs already in DONE and remove stale ones
4. Keep files that already exist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := root.Open(cmd.Context(), ProgramDistribute, o, func(cfg config.Config) (string, string) {
				return cfg.Distributor.LogReference(), cfg.Distributor.LogPrefix()
			})
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Config.CheckDate(); err != nil {
				return err
			}

			ctx := session.Ctx
			logger := session.Logger
			logger.Header("distributing par files")

			op := operation.NewDistribute(session.Config, status.New())
			err = operation.NewRunner(logger.Zerolog()).Run(ctx, op)

			if len(op.Report().Entries()) > 0 {
				if table, rerr := op.Report().Render(); rerr != nil {
					logger.Warningf("report: %v", rerr)
				} else {
					logger.LogNewline()
					logger.Raw(table)
					logger.LogNewline()
				}
			}

			res := op.Result()
			if res.Tasks > 0 {
				logger.Infof("tasks: %d, copied: %d, skipped: %d, stale removed: %d, purged: %d",
					res.Tasks, res.Copied, res.Skipped, res.Removed, res.Purged)
			}

			return err
		},
	}

	cmd.Flags().StringVar(&o.Mapping, "ref-mapping", "", "mapping table (CSV, ';' separated)")
	cmd.Flags().StringVar(&o.ModeCopie, "mode-copie", "", "CLEVADSN copies every mapped file")
	cmd.Flags().StringVar(&o.WebdavPath, "webdav-path", "", "webdav home")
	cmd.Flags().StringVar(&o.InterfacesPath, "interfaces-path", "", "root replacing the source home")
	cmd.Flags().BoolVar(&o.RenameDuplicates, "rename-duplicates", false, "rename name collisions with -Doublon")
	_ = cmd.MarkFlagRequired("ref-mapping")

	return cmd
}
