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

// Package staging knows the WAIT/DONE staging directories of each domain and
// the logical identity of staged par files.
package staging

import (
	"path"
	"strings"
)

// 🏷️ Kind of a destination directory
type Kind string

const (
	KindNone Kind = ""
	KindWait Kind = "WAIT"
	KindDone Kind = "DONE"
)

// 🗂️ Domain is a pair of staging directories, relative to the dated webdav root
type Domain struct {
	Name string
	Wait string
	Done string
}

// DefaultDomains is the production staging table
func DefaultDomains() []Domain {
	return []Domain{
		{Name: "CCO", Wait: "pars/CCO/WAIT", Done: "pars/CCO/DONE"},
		{Name: "DSN", Wait: "pars/DSN/WAIT", Done: "pars/DSN/DONE"},
	}
}

// 📍 Classification tells where a destination sits in the staging table
type Classification struct {
	Domain  string
	Kind    Kind
	WaitDir string
	DoneDir string
}

// Staged reports whether the destination is a WAIT or DONE directory
func (c Classification) Staged() bool {
	return c.Kind != KindNone
}

// 🧭 Table resolves staging directories under one dated webdav root
type Table struct {
	root    string
	domains []Domain
}

// NewTable anchors domains at root (<webdav>/<date>)
func NewTable(root string, domains []Domain) *Table {
	return &Table{root: root, domains: domains}
}

// Classify matches dir exactly against the WAIT and DONE directories of each
// domain. Unmatched directories are plain copy targets.
func (t *Table) Classify(dir string) Classification {
	target := normalize(dir)
	for _, d := range t.domains {
		wait := normalize(path.Join(t.root, d.Wait))
		done := normalize(path.Join(t.root, d.Done))
		switch target {
		case wait:
			return Classification{Domain: d.Name, Kind: KindWait, WaitDir: wait, DoneDir: done}
		case done:
			return Classification{Domain: d.Name, Kind: KindDone, WaitDir: wait, DoneDir: done}
		}
	}
	return Classification{}
}

func normalize(p string) string {
	return strings.TrimRight(strings.ReplaceAll(p, "\\", "/"), "/")
}

const (
	endTimeMarker = "_endtime_"
	logicalSuffix = ".par.txt"
)

// 🔑 LogicalKey identifies a run of the same job across WAIT and DONE: the name
// is cut at _endtime_ and given a .par.txt suffix. Names without the marker
// are their own key.
func LogicalKey(name string) string {
	if i := strings.Index(name, endTimeMarker); i >= 0 {
		return name[:i] + logicalSuffix
	}
	return name
}

// TargetName appends .txt unless name already ends with it in any case
func TargetName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".txt") {
		return name
	}
	return name + ".txt"
}
