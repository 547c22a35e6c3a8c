package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load with missing file: %v", err)
	}
	if cfg.Server.Port != "8000" {
		t.Errorf("port default = %q", cfg.Server.Port)
	}
	if cfg.Cache.RefreshIntervalMinutes != 60 {
		t.Errorf("refresh interval default = %d", cfg.Cache.RefreshIntervalMinutes)
	}
	if cfg.Cache.ErrorCooldownSeconds != 60 {
		t.Errorf("cooldown default = %d", cfg.Cache.ErrorCooldownSeconds)
	}
	if cfg.LLM.Model == "" {
		t.Error("llm model default missing")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: \"9000\"\nllm:\n  api_key: from-file\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "from-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q, want file value", cfg.Server.Port)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("api key = %q, env must override file", cfg.LLM.APIKey)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without llm api key")
	}
	cfg.LLM.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
