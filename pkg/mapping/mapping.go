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

// Package mapping reads the distribution mapping table and turns it into a
// copy plan.
package mapping

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📋 Mapping table column names
const (
	ColumnType          = "type"
	ColumnSource        = "source"
	ColumnDestination   = "destination"
	ColumnPurge         = "purge"
	ColumnDatePolicy    = "date_policy"
	ColumnPrefix        = "prefix"
	ColumnExtension     = "extension"
	ColumnExcludePrefix = "exclude_prefix"
)

var (
	// ErrNotFound is returned when the mapping file does not exist
	ErrNotFound = errors.New("mapping file not found")
	// ErrInvalid is returned when the mapping file cannot be used
	ErrInvalid = errors.New("mapping file invalid")
)

// 🧩 Schema locates the columns of a mapping table. Optional columns are -1
// when absent. Pattern groups hold every column whose name starts with the
// group name, in header order.
type Schema struct {
	Headers     []string
	Type        int
	Source      int
	Destination int
	Purge       int
	DatePolicy  int
	Prefixes    []int
	Extensions  []int
	Excludes    []int
}

// ParseSchema reads the header row once. Names are trimmed; required names
// match exactly, pattern groups match case-insensitively on the name start.
func ParseSchema(header []string) (*Schema, error) {
	s := &Schema{Type: -1, Source: -1, Destination: -1, Purge: -1, DatePolicy: -1}

	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		s.Headers = append(s.Headers, name)

		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(lower, ColumnPrefix):
			s.Prefixes = append(s.Prefixes, i)
		case strings.HasPrefix(lower, ColumnExtension):
			s.Extensions = append(s.Extensions, i)
		case strings.HasPrefix(lower, ColumnExcludePrefix):
			s.Excludes = append(s.Excludes, i)
		}

		assign := func(target *int) {
			if *target < 0 {
				*target = i
			}
		}
		switch name {
		case ColumnType:
			assign(&s.Type)
		case ColumnSource:
			assign(&s.Source)
		case ColumnDestination:
			assign(&s.Destination)
		case ColumnPurge:
			assign(&s.Purge)
		case ColumnDatePolicy:
			assign(&s.DatePolicy)
		}
	}

	var missing []string
	for _, req := range []struct {
		name string
		idx  int
	}{{ColumnType, s.Type}, {ColumnSource, s.Source}, {ColumnDestination, s.Destination}} {
		if req.idx < 0 {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("%w: missing required columns %s", ErrInvalid, strings.Join(missing, ","))
	}

	return s, nil
}

// 📄 Row is one mapping line
type Row struct {
	Line   int
	schema *Schema
	cells  []string
}

// Cell returns the trimmed value at column index i, empty when absent
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r Row) Type() string        { return strings.ToUpper(r.Cell(r.schema.Type)) }
func (r Row) Source() string      { return r.Cell(r.schema.Source) }
func (r Row) Destination() string { return r.Cell(r.schema.Destination) }
func (r Row) DatePolicy() string  { return strings.ToUpper(r.Cell(r.schema.DatePolicy)) }

// Purge is true when the purge column says YES in any case
func (r Row) Purge() bool {
	return strings.EqualFold(r.Cell(r.schema.Purge), "YES")
}

func (r Row) Prefixes() []string   { return r.values(r.schema.Prefixes) }
func (r Row) Extensions() []string { return r.values(r.schema.Extensions) }
func (r Row) Excludes() []string   { return r.values(r.schema.Excludes) }

func (r Row) values(cols []int) []string {
	var out []string
	for _, c := range cols {
		if v := r.Cell(c); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// 📊 Table is a loaded mapping file
type Table struct {
	Schema *Schema
	Rows   []Row
}

// 🎯 Load reads the semicolon-delimited mapping table at path
func Load(ctx context.Context, path string) (*Table, error) {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, errors.Errorf("%w: %s: %s", ErrInvalid, path, err.Error())
	}

	logger.Info().Str("path", path).Msg("reading mapping file")

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("%w: %s: %s", ErrInvalid, path, err.Error())
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return nil, errors.Errorf("reading mapping file %s: %w", path, err)
	}

	logger.Debug().Strs("headers", table.Schema.Headers).Int("rows", len(table.Rows)).Msg("mapping file read")
	return table, nil
}

// Parse reads a mapping table from r
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Errorf("%w: reading header: %s", ErrInvalid, err.Error())
	}

	schema, err := ParseSchema(header)
	if err != nil {
		return nil, err
	}

	table := &Table{Schema: schema}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Errorf("%w: %s", ErrInvalid, err.Error())
		}

		line, _ := reader.FieldPos(0)
		if len(record) > len(header) {
			return nil, errors.Errorf("%w: line %d has %d fields, header has %d", ErrInvalid, line, len(record), len(header))
		}

		table.Rows = append(table.Rows, Row{Line: line, schema: schema, cells: record})
	}

	return table, nil
}
