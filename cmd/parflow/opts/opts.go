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

package opts

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/parflow/pkg/config"
	"github.com/walteh/parflow/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Date       string
	Verbose    string
	LogDir     string

	Version string
	Console io.Writer
	Now     func() time.Time
}

// LogTarget picks the batch log directory and file prefix of a command
type LogTarget func(cfg config.Config) (reference, prefix string)

// 🎬 Session is one configured command run
type Session struct {
	Ctx     context.Context
	Config  config.Config
	Logger  *log.Logger
	LogPath string

	file *os.File
}

// Close closes the log file
func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// 🎬 Open builds the configuration and the logger of one run. Records
// written before the log file location is known are kept in memory and
// flushed into the file once it is open.
func (o *RootOpts) Open(ctx context.Context, program string, overrides config.Overrides, target LogTarget) (*Session, error) {
	if strings.TrimSpace(o.Date) == "" {
		return nil, errors.New(`required flag "date" not set`)
	}

	level, err := log.ParseLevel(o.Verbose)
	if err != nil {
		return nil, errors.Errorf("parsing verbosity: %w", err)
	}

	console := o.Console
	if console == nil {
		console = os.Stdout
	}
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}

	logger := log.New(console, level, uuid.NewString())
	ctx = log.NewContext(ctx, logger)
	zlog := zerolog.Ctx(ctx)

	cwd, _ := os.Getwd()
	zlog.Info().
		Str("program", program).
		Str("version", o.Version).
		Str("cwd", cwd).
		Str("user", os.Getenv("USER")).
		Str("date", o.Date).
		Msg("init")

	var file *config.File
	if o.ConfigFile != "" {
		file, err = config.LoadFile(ctx, o.ConfigFile)
		if err != nil {
			return nil, err
		}
	}

	overrides.Date = o.Date
	overrides.LogDir = o.LogDir
	overrides.ExecDir = execDir()

	cfg, err := config.Build(file, overrides)
	if err != nil {
		return nil, err
	}

	reference, prefix := target(cfg)
	dir := log.ResolveDir(cfg.LogDir, reference)
	name := log.FileName(prefix, program, now())
	zlog.Info().Str("dir", dir).Str("file", name).Msg("log file")

	f, err := log.OpenFile(dir, name)
	if err != nil {
		return nil, err
	}
	if err := logger.Attach(f); err != nil {
		f.Close()
		return nil, err
	}

	return &Session{
		Ctx:     ctx,
		Config:  cfg,
		Logger:  logger,
		LogPath: filepath.Join(dir, name),
		file:    f,
	}, nil
}

// execDir is the directory of the running binary, the anchor of the
// default rule and property files
func execDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
