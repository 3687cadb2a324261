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
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is one batch run
type Operation interface {
	// Name identifies the operation in logs
	Name() string
	// Execute runs the operation. A failure carries its exit code as an *ExitError.
	Execute(ctx context.Context) error
}

// Customizer exit codes
const (
	CodeOK           = 0
	CodeNoParFile    = 1
	CodeNoValidRules = 10
	CodeApplyFailed  = 20
)

// Distributor exit codes
const (
	CodeBadArgs         = 1
	CodeMappingNotFound = 2
	CodeMappingInvalid  = 3
	CodeNothingToDo     = 4
	CodeRuntime         = 5
)

// 🚪 ExitError is an operation failure with the process exit code it maps to
type ExitError struct {
	Code int
	err  error
}

func exitError(code int, err error) *ExitError {
	return &ExitError{Code: code, err: err}
}

func (e *ExitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.err
}

// ExitCodeOf returns the exit code carried by err: 0 for nil, the ExitError
// code when there is one, and 1 for anything else (flag and argument errors).
func ExitCodeOf(err error) int {
	if err == nil {
		return CodeOK
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return CodeBadArgs
}
