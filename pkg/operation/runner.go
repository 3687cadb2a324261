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
	"time"

	"github.com/rs/zerolog"
)

// 🏃 OperationRunner executes operations one at a time
type OperationRunner struct {
	logger *zerolog.Logger
}

// 🏗️ NewRunner creates a new runner
func NewRunner(logger *zerolog.Logger) *OperationRunner {
	return &OperationRunner{
		logger: logger,
	}
}

// 🏃 Run executes op and logs its start, end and exit code
func (r *OperationRunner) Run(ctx context.Context, op Operation) error {
	start := time.Now()
	r.logger.Info().Str("operation", op.Name()).Msg("starting")

	err := op.Execute(ctx)

	code := ExitCodeOf(err)
	event := r.logger.Info()
	if code != CodeOK {
		event = r.logger.Error().Err(err)
	}
	event.Str("operation", op.Name()).
		Int("exit_code", code).
		Dur("elapsed", time.Since(start)).
		Msg("finished")

	return err
}
