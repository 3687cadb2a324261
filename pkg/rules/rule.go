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

// Package rules loads and validates the customizer rule table.
package rules

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📋 Rule table column names
const (
	ColumnNum       = "RULES_NUM"
	ColumnActive    = "RULE_ACTIVE"
	ColumnBatchCode = "BATCH_CODE"
	ColumnMode      = "MODE"
	ColumnKey       = "KEY"
	ColumnValue     = "VALUE"
)

// PreviousDeclaredMonthToken is the symbolic VALUE resolved from the processing date.
const PreviousDeclaredMonthToken = "DATE_MOIS_PRECEDENT"

// 🔧 Mode says what a rule does when its key is missing from a par file
type Mode string

const (
	ModeNew    Mode = "new"
	ModeUpdate Mode = "update"
)

// 📄 Row is one raw line of the rule table, cells trimmed
type Row struct {
	Line      int
	Num       string
	Active    string
	BatchCode string
	Mode      string
	Key       string
	Value     string
}

// ✅ Rule is a structurally valid, active rule
type Rule struct {
	Line      int
	Num       string
	BatchCode string
	Mode      Mode
	Key       string
	Value     string
}

// IsPreviousDeclaredMonth reports whether the value must be computed from the processing date
func (r Rule) IsPreviousDeclaredMonth() bool {
	return r.Value == PreviousDeclaredMonthToken
}

// 🎯 Load reads the semicolon-delimited rule table at path
func Load(ctx context.Context, path string) ([]Row, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("path", path).Msg("loading rules")

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	rows, err := Parse(f)
	if err != nil {
		return nil, errors.Errorf("reading rules file %s: %w", path, err)
	}

	if len(rows) == 0 {
		logger.Debug().Str("path", path).Msg("rules file empty")
	}

	return rows, nil
}

// Parse reads rule rows from r. Blank rows are dropped.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, errors.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}

	cell := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Errorf("reading record: %w", err)
		}

		if isBlank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, Row{
			Line:      line,
			Num:       cell(record, ColumnNum),
			Active:    cell(record, ColumnActive),
			BatchCode: cell(record, ColumnBatchCode),
			Mode:      cell(record, ColumnMode),
			Key:       cell(record, ColumnKey),
			Value:     cell(record, ColumnValue),
		})
	}

	return rows, nil
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// GroupByBatchCode groups rules per batch code, keeping table order inside each group
func GroupByBatchCode(rules []Rule) map[string][]Rule {
	groups := make(map[string][]Rule)
	for _, r := range rules {
		groups[r.BatchCode] = append(groups[r.BatchCode], r)
	}
	return groups
}
