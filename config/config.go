// Package config loads the engine configuration from a JSON or YAML file
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fieldcrew/dispatch/core/assign"
	"github.com/fieldcrew/dispatch/core/audit"
	coremetrics "github.com/fieldcrew/dispatch/core/metrics"
	"github.com/fieldcrew/dispatch/core/watchdog"
	"github.com/fieldcrew/dispatch/geocall"
	"github.com/fieldcrew/dispatch/infra/notify"
)

type Config struct {
	Assign   assign.Config      `json:"assign"`
	Geocall  geocall.Config     `json:"geocall"`
	Audit    audit.Config       `json:"audit"`
	Notify   notify.Config      `json:"notify"`
	Metrics  coremetrics.Config `json:"metrics"`
	Watchdog watchdog.Config    `json:"watchdog"`
	Logging  LoggingConfig      `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Assign.SetDefaults()
	cfg.Geocall.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.Notify.SetDefaults()
	cfg.Watchdog.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Assign.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Geocall.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notify.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Watchdog.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
