package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" || cfg.StaticDir != "static" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "addr: \":9090\"\ndatabase_path: /tmp/wb.db\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.DatabasePath != "/tmp/wb.db" {
		t.Errorf("database_path = %q", cfg.DatabasePath)
	}
	// unset fields keep their defaults
	if cfg.StaticDir != "static" {
		t.Errorf("static_dir = %q", cfg.StaticDir)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := loadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("missing file accepted")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("addr: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("malformed YAML accepted")
	}
}
