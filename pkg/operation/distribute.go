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
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/parflow/pkg/config"
	"github.com/walteh/parflow/pkg/log"
	"github.com/walteh/parflow/pkg/mapping"
	"github.com/walteh/parflow/pkg/staging"
	"github.com/walteh/parflow/pkg/status"
)

// 🚚 DistributeResult summarizes a distribution run. Counters keep the work
// done before a failure.
type DistributeResult struct {
	Tasks   int
	Copied  int
	Skipped int
	Removed int // stale WAIT copies removed
	Purged  int
}

// 🚚 Distribute copies the files named by the mapping table into the dated
// webdav tree, keeping each domain's WAIT directory free of jobs already
// in DONE.
type Distribute struct {
	cfg    config.Distributor
	date   string
	fm     status.FileManager
	report *status.Report
	result DistributeResult
}

var _ Operation = (*Distribute)(nil)

// NewDistribute creates the distributor operation
func NewDistribute(cfg config.Config, fm status.FileManager) *Distribute {
	return &Distribute{
		cfg:    cfg.Distributor,
		date:   cfg.Date,
		fm:     fm,
		report: status.NewReport(),
	}
}

func (d *Distribute) Name() string { return "distribute" }

// Result returns the outcome of the last Execute
func (d *Distribute) Result() DistributeResult {
	return d.result
}

// Report returns the per-file outcomes of the last Execute
func (d *Distribute) Report() *status.Report {
	return d.report
}

func (d *Distribute) Execute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	d.result = DistributeResult{}
	d.report = status.NewReport()

	table, err := mapping.Load(ctx, d.cfg.Mapping)
	if err != nil {
		if errors.Is(err, mapping.ErrNotFound) {
			return exitError(CodeMappingNotFound, err)
		}
		return exitError(CodeMappingInvalid, err)
	}

	opts := d.cfg.PlanOptions(d.date)
	tasks, err := mapping.NewBuilder(opts).Build(ctx, table)
	if err != nil {
		if errors.Is(err, mapping.ErrInvalid) {
			return exitError(CodeMappingInvalid, err)
		}
		return exitError(CodeRuntime, err)
	}
	if len(tasks) == 0 {
		return exitError(CodeNothingToDo, errors.New("no file to copy"))
	}

	stagingTable := staging.NewTable(opts.DatedRoot(), d.cfg.Domains)
	mapping.SortBy(tasks, func(t mapping.CopyTask) int {
		return stagedPriority(stagingTable, t)
	})
	d.result.Tasks = len(tasks)
	logger.Info().Int("tasks", len(tasks)).Msg("copy plan ready")

	total := 0
	for _, t := range tasks {
		total += len(t.Files)
	}
	d.report.Start(ctx, total)

	err = d.copy(ctx, tasks, stagingTable)
	d.result.Copied = d.report.Count(status.StatusCopied)
	d.result.Skipped = d.report.Skipped()
	d.result.Removed = d.report.Count(status.StatusRemovedStale)
	d.result.Purged = d.report.Count(status.StatusPurged)
	if err != nil {
		return exitError(CodeRuntime, err)
	}

	if d.result.Copied == 0 {
		logger.Info().Int("skipped", d.result.Skipped).Msg("webdav up to date")
		return exitError(CodeNothingToDo, errors.New("nothing copied"))
	}

	logger.Info().Int("copied", d.result.Copied).Int("skipped", d.result.Skipped).Msg("copy to webdav complete")
	return nil
}

func (d *Distribute) copy(ctx context.Context, tasks []mapping.CopyTask, stagingTable *staging.Table) error {
	logger := zerolog.Ctx(ctx)
	console, _ := log.Lookup(ctx)

	purged, err := d.purge(ctx, tasks)
	if err != nil {
		return err
	}

	indexes := staging.NewIndexes()

	for _, task := range tasks {
		dest := task.Destination

		if _, err := d.fm.EnsureDir(ctx, dest); err != nil {
			return errors.Errorf("creating destination %s: %w", dest, err)
		}

		cls := stagingTable.Classify(dest)
		var done *staging.Index
		if cls.Staged() {
			done, _ = indexes.Get(ctx, cls.DoneDir)
		}

		if console != nil {
			console.StartTask(ctx, log.TaskOperation{Source: task.Source, Destination: dest, Files: len(task.Files)})
		}
		logger.Info().Str("source", task.Source).Str("destination", dest).Str("kind", string(cls.Kind)).Int("files", len(task.Files)).Msg("copy task started")

		for _, file := range task.Files {
			if err := d.copyFile(ctx, task, file, cls, done, purged[dest]); err != nil {
				return err
			}
		}

		if console != nil {
			console.EndTask(ctx)
		}
		logger.Info().Str("source", task.Source).Str("destination", dest).Msg("copy task done")
	}
	return nil
}

// 🧹 purge empties every destination with a purge=YES task, once, before
// anything is copied or indexed
func (d *Distribute) purge(ctx context.Context, tasks []mapping.CopyTask) (map[string]bool, error) {
	purged := map[string]bool{}
	for _, task := range tasks {
		dest := task.Destination
		if !task.Purge || purged[dest] {
			continue
		}
		names, err := d.fm.Purge(ctx, dest)
		for _, name := range names {
			d.track(ctx, status.Entry{Destination: dest, Name: name, Status: status.StatusPurged}, staging.KindNone)
		}
		if err != nil {
			return purged, errors.Errorf("purging %s: %w", dest, err)
		}
		purged[dest] = true
	}
	return purged, nil
}

// stagedPriority runs DONE directories of the staging table first, then
// WAIT, then falls back to the path based order
func stagedPriority(table *staging.Table, task mapping.CopyTask) int {
	switch table.Classify(task.Destination).Kind {
	case staging.KindDone:
		return 0
	case staging.KindWait:
		return 1
	default:
		return mapping.Priority(task)
	}
}

func (d *Distribute) copyFile(ctx context.Context, task mapping.CopyTask, file string, cls staging.Classification, done *staging.Index, purged bool) error {
	logger := zerolog.Ctx(ctx)
	dest := task.Destination
	src := filepath.Join(task.Source, file)

	name := staging.TargetName(file)
	if d.cfg.RenameDuplicates {
		renamed, err := status.DuplicateName(ctx, d.fm, dest, name, purged)
		if err != nil {
			return errors.Errorf("resolving duplicate name of %s: %w", name, err)
		}
		name = renamed
	}
	dst := filepath.Join(dest, name)

	if cls.Kind == staging.KindWait && done != nil {
		if donePath, ok := done.Lookup(staging.LogicalKey(name)); ok {
			exists, err := d.fm.Exists(ctx, dst)
			if err != nil {
				return errors.Errorf("checking %s: %w", dst, err)
			}
			if exists {
				if staging.FilesDiffer(dst, donePath) {
					logger.Info().Str("wait", name).Str("done", filepath.Base(donePath)).Msg("duplicate with different content")
				}
				if err := d.fm.Remove(ctx, dst); err != nil {
					d.track(ctx, status.Entry{Destination: dest, Name: name, Status: status.StatusFailed, Err: err}, cls.Kind)
					return errors.Errorf("removing stale WAIT copy %s: %w", dst, err)
				}
				d.track(ctx, status.Entry{Destination: dest, Name: name, Status: status.StatusRemovedStale}, cls.Kind)
			}
			d.track(ctx, status.Entry{Destination: dest, Name: name, Status: status.StatusSkippedDone}, cls.Kind)
			return nil
		}
	}

	exists, err := d.fm.Exists(ctx, dst)
	if err != nil {
		return errors.Errorf("checking %s: %w", dst, err)
	}
	if exists {
		d.track(ctx, status.Entry{Destination: dest, Name: name, Status: status.StatusSkippedExisting}, cls.Kind)
		return nil
	}

	if err := d.fm.CopyFile(ctx, src, dst); err != nil {
		d.track(ctx, status.Entry{Destination: dest, Name: name, Status: status.StatusFailed, Err: err}, cls.Kind)
		return errors.Errorf("copying %s: %w", src, err)
	}
	d.track(ctx, status.Entry{Destination: dest, Name: name, Status: status.StatusCopied}, cls.Kind)

	if cls.Kind == staging.KindDone && done != nil {
		done.Record(dst)
	}
	return nil
}

// track records an outcome and echoes it on the console logger when there is one
func (d *Distribute) track(ctx context.Context, e status.Entry, kind staging.Kind) {
	d.report.Track(ctx, e)

	console, ok := log.Lookup(ctx)
	if !ok {
		return
	}
	console.LogFileOperation(ctx, log.FileOperation{
		Name:      e.Name,
		Kind:      string(kind),
		Status:    e.Status.String(),
		IsCopied:  e.Status == status.StatusCopied,
		IsRemoved: e.Status == status.StatusRemovedStale || e.Status == status.StatusPurged,
		IsSkipped: e.Status.Skipped(),
	})
}
