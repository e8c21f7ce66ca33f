package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the editor backend settings. Zero values fall back to the
// defaults below; command-line flags override file values.
type Config struct {
	Addr         string `yaml:"addr"`
	StaticDir    string `yaml:"static_dir"`
	DatabasePath string `yaml:"database_path"`
}

func defaultConfig() Config {
	return Config{
		Addr:         ":8080",
		StaticDir:    "static",
		DatabasePath: "sheetdata/workbook.db",
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Addr == "" {
		cfg.Addr = defaultConfig().Addr
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = defaultConfig().StaticDir
	}
	return cfg, nil
}
