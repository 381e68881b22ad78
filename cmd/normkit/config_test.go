package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "backend: fused\ndtype: bf16\nlog_level: debug\nserver_address: \"0.0.0.0:9090\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfigFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "fused" || cfg.DType != "bf16" || cfg.LogLevel != "debug" || cfg.ServerAddress != "0.0.0.0:9090" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigFromMissingFile(t *testing.T) {
	cfg, err := loadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("missing file should give zero config: %+v", cfg)
	}
}

func TestLoadConfigFromBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfigFrom(path); err == nil {
		t.Error("malformed yaml should error")
	}
}
