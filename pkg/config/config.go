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
	"maps"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/parflow/pkg/mapping"
	"github.com/walteh/parflow/pkg/parfile"
	"github.com/walteh/parflow/pkg/rules"
	"github.com/walteh/parflow/pkg/staging"
)

// Production locations
const (
	DefaultParDir       = "/data/share/interfaces/appcleva/batch/pars/"
	DefaultClevaHome    = "/data/share/interfaces/"
	DefaultDSNHome      = "/data/share/dsncol/"
	DefaultWebdavHome   = "/data/share/batchs/tech/"
	DefaultClevaLogDir  = "/data/share/interfaces/log/"
	DefaultDSNLogDir    = "/data/share/dsncol/appdsn/batch/log/"
	DefaultClevaLogName = "rapport-clevacol-batch"
	DefaultDSNLogName   = "rapport-dsncol-batch"

	RulesFileName      = "rules_customizer_pars.csv"
	PropertiesFileName = "customizer_pars.properties"
)

// 📚 Config is the runtime configuration of one run. It is built once by
// the command layer and only read afterwards.
type Config struct {
	Date   string `validate:"required"`
	LogDir string

	Customizer  Customizer
	Distributor Distributor
}

// ✏️ Customizer configures the par customizer
type Customizer struct {
	Rules           string `validate:"required"`
	ParDir          string `validate:"required"`
	ParMask         string `validate:"required"`
	Properties      string
	ArchiveOriginal bool
	ForceFeature    bool
	ArchiveMode     parfile.ArchiveMode `validate:"oneof=lenient strict"`
	LogReference    string
	LogPrefix       string `validate:"required"`
}

// 🚚 Distributor configures the webdav distributor
type Distributor struct {
	Mapping          string
	Interfaces       string
	WebdavHome       string `validate:"required"`
	FullCopy         bool
	DefaultType      string `validate:"required"`
	Homes            map[string]string
	Domains          []staging.Domain `validate:"dive"`
	RenameDuplicates bool
	LogReferences    map[string]string
	LogPrefixes      map[string]string
}

// Overrides are the command line values. Empty strings and false leave the
// configured value alone.
type Overrides struct {
	Date    string
	LogDir  string
	ExecDir string // directory of the running binary

	Rules           string
	ParDir          string
	Properties      string
	ArchiveOriginal bool
	ForceFeature    bool
	StrictArchive   bool

	Mapping          string
	ModeCopie        string
	WebdavPath       string
	InterfacesPath   string
	RenameDuplicates bool
}

// 🏭 Default returns the production configuration. Rule and property files
// live next to the installed binary, like the batch scripts they replace.
func Default(execDir string) Config {
	return Config{
		Customizer: Customizer{
			Rules:        filepath.Join(execDir, "..", "..", "ressources", RulesFileName),
			ParDir:       DefaultParDir,
			ParMask:      parfile.DefaultMask,
			Properties:   filepath.Join(execDir, "..", "..", "param", PropertiesFileName),
			ArchiveMode:  parfile.ArchiveLenient,
			LogReference: DefaultClevaLogDir,
			LogPrefix:    DefaultClevaLogName,
		},
		Distributor: Distributor{
			WebdavHome:  DefaultWebdavHome,
			DefaultType: mapping.TypeCleva,
			Homes: map[string]string{
				mapping.TypeCleva:    DefaultClevaHome,
				mapping.TypeDSN:      DefaultDSNHome,
				mapping.TypeClevaDSN: DefaultClevaHome,
			},
			Domains: staging.DefaultDomains(),
			LogReferences: map[string]string{
				mapping.TypeCleva: DefaultClevaLogDir,
				mapping.TypeDSN:   DefaultDSNLogDir,
			},
			LogPrefixes: map[string]string{
				mapping.TypeCleva: DefaultClevaLogName,
				mapping.TypeDSN:   DefaultDSNLogName,
			},
		},
	}
}

// 🔧 Build merges defaults, then the optional file, then the command line,
// and validates the result.
func Build(file *File, o Overrides) (Config, error) {
	cfg := Default(o.ExecDir)

	if file != nil {
		if err := file.apply(&cfg); err != nil {
			return Config{}, errors.Errorf("applying config file: %w", err)
		}
	}

	o.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (o Overrides) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}

	set(&cfg.Date, o.Date)
	set(&cfg.LogDir, o.LogDir)

	c := &cfg.Customizer
	set(&c.Rules, o.Rules)
	set(&c.ParDir, o.ParDir)
	set(&c.Properties, o.Properties)
	c.ArchiveOriginal = c.ArchiveOriginal || o.ArchiveOriginal
	c.ForceFeature = c.ForceFeature || o.ForceFeature
	if o.StrictArchive {
		c.ArchiveMode = parfile.ArchiveStrict
	}

	d := &cfg.Distributor
	set(&d.Mapping, o.Mapping)
	set(&d.WebdavHome, filepath.ToSlash(o.WebdavPath))
	set(&d.Interfaces, filepath.ToSlash(o.InterfacesPath))
	if strings.EqualFold(strings.TrimSpace(o.ModeCopie), mapping.TypeClevaDSN) {
		d.FullCopy = true
	}
	d.RenameDuplicates = d.RenameDuplicates || o.RenameDuplicates
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// 🔍 Validate checks required settings
func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Errorf("validating config: %w", err)
	}
	return nil
}

// CheckDate verifies the processing date is a real YYYYMMDD calendar date
func (cfg Config) CheckDate() error {
	if _, err := time.Parse(rules.DateLayout, cfg.Date); err != nil {
		return errors.Errorf("%w: %q", rules.ErrInvalidDate, cfg.Date)
	}
	return nil
}

// PlanOptions returns the copy plan settings for the processing date
func (d Distributor) PlanOptions(date string) mapping.Options {
	return mapping.Options{
		Date:        date,
		FullCopy:    d.FullCopy,
		DefaultType: d.DefaultType,
		Interfaces:  d.Interfaces,
		Homes:       maps.Clone(d.Homes),
		WebdavRoot:  d.WebdavHome,
	}
}

// LogReference is the batch log directory of the default copy type
func (d Distributor) LogReference() string {
	if dir, ok := d.LogReferences[d.DefaultType]; ok {
		return dir
	}
	return d.LogReferences[mapping.TypeDSN]
}

// LogPrefix is the batch log file prefix of the default copy type
func (d Distributor) LogPrefix() string {
	if p, ok := d.LogPrefixes[d.DefaultType]; ok {
		return p
	}
	return d.LogPrefixes[mapping.TypeDSN]
}
