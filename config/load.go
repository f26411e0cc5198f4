/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"dirpx.dev/rsx/apis"
)

// EnvPrefix prefixes every environment variable read by FromEnv,
// e.g. RSX_BASE_URL or RSX_CACHE_STRATEGY.
const EnvPrefix = "RSX_"

// Load reads a YAML file over DefaultConfig. Keys missing from the file keep
// their defaults.
func Load(path string) (apis.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apis.Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes over DefaultConfig.
func Parse(data []byte) (apis.Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return apis.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return Sanitize(cfg), nil
}

// FromEnv overlays RSX_* environment variables on cfg. Variables that are
// not set leave the corresponding field unchanged.
func FromEnv(cfg apis.Config) (apis.Config, error) {
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return apis.Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return Sanitize(cfg), nil
}

// LoadWithEnv reads path (if non-empty) and then overlays the environment.
func LoadWithEnv(path string) (apis.Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return apis.Config{}, err
		}
	}
	return FromEnv(cfg)
}
