package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPassesValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("EVIDENCE_STORAGE_ROOT", "/data/evidence")
	t.Setenv("EVIDENCE_LLM_PROVIDER", "anthropic")
	t.Setenv("EVIDENCE_LLM_MODEL", "claude-x")
	t.Setenv("EVIDENCE_ANALYZE_MAX_CONCURRENCY", "9")
	t.Setenv("EVIDENCE_ANALYZE_FORCE", "true")
	t.Setenv("EVIDENCE_SUMMARY_CASE_TYPE", "employment")
	t.Setenv("EVIDENCE_PACKAGE_FORMAT", "directory")

	cfg := Load()

	if cfg.Storage.Root != "/data/evidence" {
		t.Errorf("Storage.Root = %q", cfg.Storage.Root)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.Model != "claude-x" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Analyze.MaxConcurrency != 9 || !cfg.Analyze.Force {
		t.Errorf("Analyze = %+v", cfg.Analyze)
	}
	if cfg.Summary.CaseType != CaseEmployment {
		t.Errorf("Summary.CaseType = %q", cfg.Summary.CaseType)
	}
	if cfg.Package.Format != FormatDirectory {
		t.Errorf("Package.Format = %q", cfg.Package.Format)
	}
}

func TestLoadIgnoresInvalidIntegerOverrides(t *testing.T) {
	t.Setenv("EVIDENCE_ANALYZE_MAX_CONCURRENCY", "not-a-number")
	t.Setenv("EVIDENCE_SUMMARY_CHUNK_SIZE", "-5")

	cfg := Load()

	if cfg.Analyze.MaxConcurrency != Default().Analyze.MaxConcurrency {
		t.Errorf("expected the default concurrency to survive an unparseable override, got %d", cfg.Analyze.MaxConcurrency)
	}
	if cfg.Summary.ChunkSize != Default().Summary.ChunkSize {
		t.Errorf("expected the default chunk size to survive a non-positive override, got %d", cfg.Summary.ChunkSize)
	}
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "storage:\n  root: /mnt/evidence\nllm:\n  model: gpt-custom\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Storage.Root != "/mnt/evidence" || cfg.LLM.Model != "gpt-custom" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Analyze.MaxConcurrency != Default().Analyze.MaxConcurrency {
		t.Errorf("expected an unset field to keep its default, got %d", cfg.Analyze.MaxConcurrency)
	}
}

func TestLoadFileReturnsErrorForMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a nonexistent config file")
	}
}

func TestValidateRejectsEachFatalField(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty storage root", func(c *Config) { c.Storage.Root = "" }},
		{"empty model", func(c *Config) { c.LLM.Model = "" }},
		{"non-positive concurrency", func(c *Config) { c.Analyze.MaxConcurrency = 0 }},
		{"negative ai resolve max calls", func(c *Config) { c.Correlate.AIResolveMaxCalls = -1 }},
		{"non-positive chunk threshold", func(c *Config) { c.Summary.ChunkThreshold = 0 }},
		{"unrecognized case type", func(c *Config) { c.Summary.CaseType = "unknown" }},
		{"unrecognized package format", func(c *Config) { c.Package.Format = "tarball" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected Validate to reject: %s", tc.name)
			}
		})
	}
}
