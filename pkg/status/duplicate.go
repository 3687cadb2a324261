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

package status

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DuplicateTag marks a renamed duplicate
const DuplicateTag = "-Doublon"

// 🔁 DuplicateName returns a name that does not collide with an existing file
// of dir. The tag goes before the first extension, then a counter is added
// (-Doublon, -Doublon-1, -Doublon-2...). Directories purged during the run
// cannot hold an older copy, so the name is kept.
func DuplicateName(ctx context.Context, fm FileManager, dir, name string, purged bool) (string, error) {
	if purged {
		return name, nil
	}

	exists, err := fm.Exists(ctx, filepath.Join(dir, name))
	if err != nil || !exists {
		return name, err
	}

	base, ext := name, ""
	if i := strings.Index(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}

	candidate := base + DuplicateTag + ext
	for i := 1; ; i++ {
		exists, err := fm.Exists(ctx, filepath.Join(dir, candidate))
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
		candidate = fmt.Sprintf("%s%s-%d%s", base, DuplicateTag, i, ext)
	}

	zerolog.Ctx(ctx).Warn().Str("dir", dir).Str("file", name).Str("renamed", candidate).Msg("destination exists, renaming")
	return candidate, nil
}
