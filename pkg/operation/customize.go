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

package operation

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/parflow/pkg/config"
	"github.com/walteh/parflow/pkg/parfile"
	"github.com/walteh/parflow/pkg/rules"
)

// ✏️ CustomizeResult summarizes a customizer run
type CustomizeResult struct {
	// Disabled is set when the feature gate stopped the run
	Disabled bool
	Archive  bool
	Rules    *rules.Result

	FilesScanned int
	FilesMatched int // files whose batch code has rules
	FilesUpdated int
	Updated      []string // paths of the written _updated files
}

// ✏️ Customize applies the rule table to the par files of one directory
type Customize struct {
	cfg    config.Customizer
	date   string
	result CustomizeResult
}

var _ Operation = (*Customize)(nil)

// NewCustomize creates the customizer operation
func NewCustomize(cfg config.Config) *Customize {
	return &Customize{cfg: cfg.Customizer, date: cfg.Date}
}

func (c *Customize) Name() string { return "customize" }

// Result returns the outcome of the last Execute
func (c *Customize) Result() CustomizeResult {
	return c.result
}

func (c *Customize) Execute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	c.result = CustomizeResult{}

	flags, err := config.LoadFeatureFlags(ctx, c.cfg.Properties)
	if err != nil {
		logger.Error().Err(err).Msg("feature properties unreadable, feature disabled")
		flags = config.FeatureFlags{}
	}
	if !flags.Enabled && !c.cfg.ForceFeature {
		logger.Info().Str("properties", c.cfg.Properties).Msg("feature disabled, quitting")
		c.result.Disabled = true
		return nil
	}
	c.result.Archive = flags.Archive || c.cfg.ArchiveOriginal

	rows, err := rules.Load(ctx, c.cfg.Rules)
	if err != nil {
		return exitError(CodeNoValidRules, errors.Errorf("loading rules: %w", err))
	}

	v, err := rules.NewValidator()
	if err != nil {
		return exitError(CodeNoValidRules, errors.Errorf("creating rule validator: %w", err))
	}

	res, err := v.Validate(ctx, rows, c.date)
	if err != nil {
		return exitError(CodeNoValidRules, errors.Errorf("validating rules: %w", err))
	}
	c.result.Rules = res

	if !res.HasValid {
		return exitError(CodeNoValidRules, errors.Errorf("no valid rule in %s", c.cfg.Rules))
	}
	if len(res.Valid) == 0 {
		return exitError(CodeApplyFailed, errors.New("every valid rule was dropped as a duplicate"))
	}

	return c.apply(ctx, rules.GroupByBatchCode(res.Valid))
}

func (c *Customize) apply(ctx context.Context, groups map[string][]rules.Rule) error {
	logger := zerolog.Ctx(ctx)

	paths, err := parfile.Find(ctx, c.cfg.ParDir, c.cfg.ParMask)
	if err != nil {
		return exitError(CodeApplyFailed, errors.Errorf("finding par files: %w", err))
	}
	if len(paths) == 0 {
		return exitError(CodeNoParFile, errors.Errorf("no par file found in %s matching %s", c.cfg.ParDir, c.cfg.ParMask))
	}

	archiver := parfile.Archiver{Archive: c.result.Archive, Mode: c.cfg.ArchiveMode}

	for _, path := range paths {
		c.result.FilesScanned++

		f, err := parfile.Read(path)
		if err != nil {
			return exitError(CodeApplyFailed, errors.Errorf("reading par file: %w", err))
		}

		batch, ok := f.BatchCode()
		if !ok {
			logger.Debug().Str("par", f.Name()).Msg("no batch code")
			continue
		}

		group, ok := groups[batch]
		if !ok {
			logger.Debug().Str("par", f.Name()).Str("batch_code", batch).Msg("no rule applies")
			continue
		}
		c.result.FilesMatched++

		logger.Info().Str("par", f.Name()).Str("batch_code", batch).Int("rules", len(group)).Msg("applying rules")

		changed, lines := parfile.Patch(ctx, f.Name(), f.Lines, group)
		if !changed {
			continue
		}

		updated, err := archiver.Save(ctx, path, lines)
		if err != nil {
			return exitError(CodeApplyFailed, errors.Errorf("saving %s: %w", f.Name(), err))
		}
		c.result.FilesUpdated++
		c.result.Updated = append(c.result.Updated, updated)
	}

	logger.Info().Int("updated", c.result.FilesUpdated).Int("scanned", c.result.FilesScanned).Msg("total par updated")
	return nil
}
