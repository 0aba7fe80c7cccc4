// Package config loads the optional sheets-csv configuration file. Values in the file are
// overridden by SHEETS_CSV_* environment variables (including any set in a .env file in the
// current directory), which are in turn overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/uhppoted/uhppoted-lib/log"
)

const LOG_TAG = "config"

type Config struct {
	Credentials string            `yaml:"credentials"`
	Workdir     string            `yaml:"workdir"`
	Deployment  string            `yaml:"deployment"`
	Function    string            `yaml:"function"`
	Metrics     string            `yaml:"metrics"`
	Exports     map[string]Export `yaml:"exports"`
}

// Export is a named export profile.
type Export struct {
	Spreadsheet string `yaml:"spreadsheet"` // ID or URL
	Dir         string `yaml:"dir"`
	Replace     string `yaml:"replace"`
}

var env = map[string]func(*Config, string){
	"SHEETS_CSV_CREDENTIALS": func(c *Config, v string) { c.Credentials = v },
	"SHEETS_CSV_WORKDIR":     func(c *Config, v string) { c.Workdir = v },
	"SHEETS_CSV_DEPLOYMENT":  func(c *Config, v string) { c.Deployment = v },
	"SHEETS_CSV_FUNCTION":    func(c *Config, v string) { c.Function = v },
	"SHEETS_CSV_METRICS":     func(c *Config, v string) { c.Metrics = v },
}

// Load reads the configuration file and applies the environment overrides. A missing file is
// not an error: the returned configuration then has only the environment values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf(LOG_TAG+"  no .env file (%v)", err)
	}

	cfg := Config{
		Exports: map[string]Export{},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Debugf(LOG_TAG+"  no configuration file %v", path)

		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)

		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %v: %w", path, err)
			}
		}
	}

	if cfg.Exports == nil {
		cfg.Exports = map[string]Export{}
	}

	for key, f := range env {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			f(&cfg, v)
		}
	}

	return &cfg, nil
}

// Profile returns the named export profile.
func (c *Config) Profile(name string) (Export, error) {
	if p, ok := c.Exports[name]; ok {
		return p, nil
	}

	profiles := []string{}
	for k := range c.Exports {
		profiles = append(profiles, k)
	}

	sort.Strings(profiles)

	return Export{}, fmt.Errorf("unknown export profile '%v' (available: %v)", name, profiles)
}
