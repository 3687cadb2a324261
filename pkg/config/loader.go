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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/parflow/pkg/parfile"
	"github.com/walteh/parflow/pkg/staging"
)

// 📄 File is the on-disk configuration. Every setting is optional.
type File struct {
	LogDir      string           `json:"log_dir,omitempty" yaml:"log_dir,omitempty" hcl:"log_dir,optional"`
	Customizer  *CustomizerFile  `json:"customizer,omitempty" yaml:"customizer,omitempty" hcl:"customizer,block"`
	Distributor *DistributorFile `json:"distributor,omitempty" yaml:"distributor,omitempty" hcl:"distributor,block"`
}

// CustomizerFile is the customizer section of File
type CustomizerFile struct {
	Rules           string `json:"rules,omitempty" yaml:"rules,omitempty" hcl:"rules,optional"`
	ParDir          string `json:"par_dir,omitempty" yaml:"par_dir,omitempty" hcl:"par_dir,optional"`
	ParMask         string `json:"par_mask,omitempty" yaml:"par_mask,omitempty" hcl:"par_mask,optional"`
	Properties      string `json:"properties,omitempty" yaml:"properties,omitempty" hcl:"properties,optional"`
	ArchiveOriginal bool   `json:"archive_original,omitempty" yaml:"archive_original,omitempty" hcl:"archive_original,optional"`
	ArchiveMode     string `json:"archive_mode,omitempty" yaml:"archive_mode,omitempty" hcl:"archive_mode,optional"`
	LogReference    string `json:"log_reference,omitempty" yaml:"log_reference,omitempty" hcl:"log_reference,optional"`
	LogPrefix       string `json:"log_prefix,omitempty" yaml:"log_prefix,omitempty" hcl:"log_prefix,optional"`
}

// DistributorFile is the distributor section of File
type DistributorFile struct {
	Interfaces       string            `json:"interfaces,omitempty" yaml:"interfaces,omitempty" hcl:"interfaces,optional"`
	WebdavHome       string            `json:"webdav_home,omitempty" yaml:"webdav_home,omitempty" hcl:"webdav_home,optional"`
	DefaultType      string            `json:"default_type,omitempty" yaml:"default_type,omitempty" hcl:"default_type,optional"`
	Homes            map[string]string `json:"homes,omitempty" yaml:"homes,omitempty" hcl:"homes,optional"`
	RenameDuplicates bool              `json:"rename_duplicates,omitempty" yaml:"rename_duplicates,omitempty" hcl:"rename_duplicates,optional"`
	LogReferences    map[string]string `json:"log_references,omitempty" yaml:"log_references,omitempty" hcl:"log_references,optional"`
	LogPrefixes      map[string]string `json:"log_prefixes,omitempty" yaml:"log_prefixes,omitempty" hcl:"log_prefixes,optional"`
	Domains          []DomainFile      `json:"domains,omitempty" yaml:"domains,omitempty" hcl:"domain,block"`
}

// DomainFile declares one WAIT/DONE staging pair. A declared domain list
// replaces the built-in one.
type DomainFile struct {
	Name string `json:"name" yaml:"name" hcl:"name,label"`
	Wait string `json:"wait" yaml:"wait" hcl:"wait"`
	Done string `json:"done" yaml:"done" hcl:"done"`
}

// 🎯 LoadFile loads a configuration file. The format follows the extension:
// .json, .yaml/.yml or .hcl. Unknown fields are rejected.
func LoadFile(ctx context.Context, path string) (*File, error) {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var file *File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		file, err = loadJSON(data)
	case ".yaml", ".yml":
		file, err = loadYAML(data)
	case ".hcl":
		file, err = loadHCL(data, path)
	default:
		return nil, errors.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// loadJSON loads a configuration from JSON data
func loadJSON(data []byte) (*File, error) {
	var file File
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &file, nil
}

// loadYAML loads a configuration from YAML data
func loadYAML(data []byte) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &file, nil
}

// loadHCL loads a configuration from HCL data
func loadHCL(data []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	var file File
	if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &file); diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &file, nil
}

// envObject exposes the process environment to HCL as env.NAME
func envObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

func (f *File) apply(cfg *Config) error {
	if f.LogDir != "" {
		cfg.LogDir = f.LogDir
	}

	if c := f.Customizer; c != nil {
		setString(&cfg.Customizer.Rules, c.Rules)
		setString(&cfg.Customizer.ParDir, c.ParDir)
		setString(&cfg.Customizer.ParMask, c.ParMask)
		setString(&cfg.Customizer.Properties, c.Properties)
		setString(&cfg.Customizer.LogReference, c.LogReference)
		setString(&cfg.Customizer.LogPrefix, c.LogPrefix)
		cfg.Customizer.ArchiveOriginal = c.ArchiveOriginal
		if c.ArchiveMode != "" {
			mode, err := parfile.ParseArchiveMode(c.ArchiveMode)
			if err != nil {
				return errors.Errorf("customizer.archive_mode: %w", err)
			}
			cfg.Customizer.ArchiveMode = mode
		}
	}

	if d := f.Distributor; d != nil {
		setString(&cfg.Distributor.Interfaces, d.Interfaces)
		setString(&cfg.Distributor.WebdavHome, d.WebdavHome)
		if d.DefaultType != "" {
			cfg.Distributor.DefaultType = strings.ToUpper(strings.TrimSpace(d.DefaultType))
		}
		mergeUpper(cfg.Distributor.Homes, d.Homes)
		mergeUpper(cfg.Distributor.LogReferences, d.LogReferences)
		mergeUpper(cfg.Distributor.LogPrefixes, d.LogPrefixes)
		cfg.Distributor.RenameDuplicates = d.RenameDuplicates

		if len(d.Domains) > 0 {
			domains := make([]staging.Domain, 0, len(d.Domains))
			for _, dom := range d.Domains {
				if dom.Name == "" || dom.Wait == "" || dom.Done == "" {
					return errors.Errorf("distributor domain %q: name, wait and done are required", dom.Name)
				}
				domains = append(domains, staging.Domain{Name: dom.Name, Wait: dom.Wait, Done: dom.Done})
			}
			cfg.Distributor.Domains = domains
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// mergeUpper copies src into dst with upper-cased copy type keys
func mergeUpper(dst, src map[string]string) {
	for k, v := range src {
		dst[strings.ToUpper(strings.TrimSpace(k))] = v
	}
}
