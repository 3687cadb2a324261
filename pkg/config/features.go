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
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
)

// Feature keys of the properties file
const (
	FeatureEnableKey  = "function_enable"
	FeatureArchiveKey = "function_enable_archive_original_files"
	featureOn         = "yes"
)

// 🚦 FeatureFlags gate the customizer
type FeatureFlags struct {
	Enabled bool
	Archive bool
}

// 🚦 LoadFeatureFlags reads the key=value properties file deployed with the
// batch. A missing file or directory disables the feature.
func LoadFeatureFlags(ctx context.Context, path string) (FeatureFlags, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("path", path).Msg("checking feature properties")

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", path).Msg("feature properties missing")
			return FeatureFlags{}, nil
		}
		return FeatureFlags{}, errors.Errorf("checking feature properties: %w", err)
	}
	if info.IsDir() {
		logger.Warn().Str("path", path).Msg("feature properties is a directory")
		return FeatureFlags{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return FeatureFlags{}, errors.Errorf("reading feature properties: %w", err)
	}

	flags := FeatureFlags{
		Enabled: isOn(v.GetString(FeatureEnableKey)),
		Archive: isOn(v.GetString(FeatureArchiveKey)),
	}
	logger.Info().Bool("enabled", flags.Enabled).Bool("archive_original", flags.Archive).Msg("feature properties read")
	return flags, nil
}

func isOn(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), featureOn)
}
