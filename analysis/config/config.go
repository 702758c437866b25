// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig. If no file has been set, the default
// config is returned.
func LoadGlobal() (*Config, error) {
	if configFile == "" {
		return NewDefault(), nil
	}
	return Load(configFile)
}

// Config contains the options of the dataflow tools.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// FunctionFilter restricts the analyses to the functions whose name matches the filter
	FunctionFilter string `yaml:"function-filter"`

	// if the FunctionFilter is specified
	functionFilterRegex *regexp.Regexp
}

// Options are the general options of the tools
type Options struct {
	// ReportsDir is the directory where the results are written. If empty, results are written on the standard
	// output.
	ReportsDir string `yaml:"reports-dir"`

	// ShowEmpty reports the locations whose state is empty. By default, they are omitted.
	ShowEmpty bool `yaml:"show-empty"`

	// Color enables colors in the output when the output is a terminal
	Color bool `yaml:"color"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:     "",
		FunctionFilter: "",
		Options: Options{
			ReportsDir:  "",
			ShowEmpty:   false,
			Color:       true,
			LogLevel:    int(InfoLevel),
			SilenceWarn: false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(filename, b)
}

// Parse reads a configuration from the contents b of the file filename. The reports directory is created if
// necessary.
func Parse(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	if cfg.ReportsDir != "" {
		if err := setReportsDir(cfg); err != nil {
			return nil, err
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	cfg.SetFunctionFilter(cfg.FunctionFilter)
	return cfg, nil
}

// SetFunctionFilter sets the function filter. If the filter is not a valid regex, MatchFunctionFilter falls back to
// prefix matching.
func (c *Config) SetFunctionFilter(filter string) {
	c.FunctionFilter = filter
	c.functionFilterRegex = nil
	if filter != "" {
		r, err := regexp.Compile(filter)
		if err == nil {
			c.functionFilterRegex = r
		}
	}
}

func setReportsDir(c *Config) error {
	if !path.IsAbs(c.ReportsDir) {
		c.ReportsDir = c.RelPath(c.ReportsDir)
	}
	err := os.Mkdir(c.ReportsDir, 0750)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("could not create directory %s: %w", c.ReportsDir, err)
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchFunctionFilter returns true if the function name matches the function filter set in the config file. If no
// filter has been set in the config file, it returns true. This function safely considers the case where a filter
// has been specified by the user, but it could not be compiled to a regex. The safe case is to check whether the
// filter string is a prefix of the name.
func (c Config) MatchFunctionFilter(name string) bool {
	if c.functionFilterRegex != nil {
		return c.functionFilterRegex.MatchString(name)
	} else if c.FunctionFilter != "" {
		return strings.HasPrefix(name, c.FunctionFilter)
	} else {
		return true
	}
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
