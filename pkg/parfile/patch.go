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

package parfile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/parflow/pkg/rules"
)

// 🔧 Patch applies rules, in order, to a copy of lines. It reports whether at
// least one line was replaced or inserted.
//
// A rule replaces the first line starting with KEY<TAB>. When no such line
// exists, a "new" rule inserts KEY<TAB>VALUE before the first FIN line and an
// "update" rule is skipped.
func Patch(ctx context.Context, name string, lines []string, rs []rules.Rule) (bool, []string) {
	logger := zerolog.Ctx(ctx)

	out := make([]string, len(lines))
	copy(out, lines)

	changed := false
	for _, r := range rs {
		entry := r.Key + "\t" + r.Value + "\n"

		if i := indexOfKey(out, r.Key); i >= 0 {
			out[i] = entry
			changed = true
			logger.Info().Str("par", name).Str("rule", r.Num).Str("key", r.Key).Str("value", r.Value).Msg("key updated")
			continue
		}

		switch r.Mode {
		case rules.ModeUpdate:
			logger.Warn().Str("par", name).Str("rule", r.Num).Str("key", r.Key).Msg("key not found, update skipped")
		case rules.ModeNew:
			fin := indexOfTerminator(out)
			if fin < 0 {
				logger.Warn().Str("par", name).Str("rule", r.Num).Str("key", r.Key).Msg("FIN line not found, key not added")
				continue
			}
			out = append(out[:fin], append([]string{entry}, out[fin:]...)...)
			changed = true
			logger.Info().Str("par", name).Str("rule", r.Num).Str("key", r.Key).Str("value", r.Value).Msg("key added")
		}
	}

	return changed, out
}

func indexOfKey(lines []string, key string) int {
	prefix := key + "\t"
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return i
		}
	}
	return -1
}

func indexOfTerminator(lines []string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == terminator {
			return i
		}
	}
	return -1
}
