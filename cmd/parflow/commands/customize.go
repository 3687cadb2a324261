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
)

// ProgramCustomize names the customizer in log file names
const ProgramCustomize = "customizer_pars"

// NewCustomizeCmd creates the customize command
func NewCustomizeCmd(root *opts.RootOpts) *cobra.Command {
	var o config.Overrides

	cmd := &cobra.Command{
		Use:   "customize",
		Short: "Apply the rule table to par files",
		Long: `Customize patches the par files of a directory with the rules of their batch code.
It will:
1. Check the feature gate in the properties file
2. Load and validate the rule table
3. Write <name>_updated.par for every par file a rule changes
4. Archive or rename the original`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := root.Open(cmd.Context(), ProgramCustomize, o, func(cfg config.Config) (string, string) {
				return cfg.Customizer.LogReference, cfg.Customizer.LogPrefix
			})
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := session.Ctx
			logger := session.Logger
			logger.Header("customizing par files")

			op := operation.NewCustomize(session.Config)
			err = operation.NewRunner(logger.Zerolog()).Run(ctx, op)

			res := op.Result()
			switch {
			case res.Disabled:
				logger.Warning("feature disabled, nothing done")
			case res.Rules != nil:
				logger.Infof("rules: %d valid, %d invalid, %d duplicate",
					len(res.Rules.Valid), len(res.Rules.Invalid), len(res.Rules.Duplicates))
			}
			if res.FilesScanned > 0 {
				logger.Infof("par files: %d scanned, %d matched, %d updated",
					res.FilesScanned, res.FilesMatched, res.FilesUpdated)
			}
			for _, path := range res.Updated {
				logger.Success(path)
			}

			return err
		},
	}

	cmd.Flags().StringVar(&o.Rules, "rules", "", "rule table (CSV, ';' separated)")
	cmd.Flags().StringVar(&o.ParDir, "par-dir", "", "directory holding the par files")
	cmd.Flags().StringVar(&o.Properties, "properties", "", "feature properties file")
	cmd.Flags().BoolVar(&o.ArchiveOriginal, "archive-original", false, "keep originals under ORIGINAL_pars")
	cmd.Flags().BoolVar(&o.ForceFeature, "force-feature", false, "run even when the feature gate is off")
	cmd.Flags().BoolVar(&o.StrictArchive, "strict-archive", false, "fail when an original cannot be archived")

	return cmd
}
