// Package config loads evidence-toolkit configuration from environment
// variables or a YAML file, covering every key named in spec §6.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// CaseType selects the executive-summary prompt template (§4.8).
type CaseType string

const (
	CaseGeneric    CaseType = "generic"
	CaseWorkplace  CaseType = "workplace"
	CaseEmployment CaseType = "employment"
	CaseContract   CaseType = "contract"
)

// PackageFormat selects the deliverable shape (§4.10).
type PackageFormat string

const (
	FormatZip       PackageFormat = "zip"
	FormatDirectory PackageFormat = "directory"
)

// LLMConfig holds structured-response LLM adapter settings.
type LLMConfig struct {
	Provider      string `yaml:"provider" json:"provider"` // "openai" | "anthropic"
	Model         string `yaml:"model" json:"model"`
	ModelRevision string `yaml:"model_revision" json:"model_revision"`
	APIKey        string `yaml:"api_key" json:"-"`
}

// AnalyzeConfig holds analyzer-dispatch worker settings.
type AnalyzeConfig struct {
	MaxConcurrency int  `yaml:"max_concurrency" json:"max_concurrency"`
	Force          bool `yaml:"force" json:"force"`
}

// CorrelateConfig holds entity-resolution settings.
type CorrelateConfig struct {
	AIResolve         bool `yaml:"ai_resolve" json:"ai_resolve"`
	AIResolveMaxCalls int  `yaml:"ai_resolve_max_calls" json:"ai_resolve_max_calls"`
}

// SummaryConfig holds case-summary / map-reduce settings.
type SummaryConfig struct {
	CaseType       CaseType `yaml:"case_type" json:"case_type"`
	ChunkThreshold int      `yaml:"chunk_threshold" json:"chunk_threshold"`
	ChunkSize      int      `yaml:"chunk_size" json:"chunk_size"`
}

// PackageConfig holds deliverable-assembly settings.
type PackageConfig struct {
	IncludeRaw bool          `yaml:"include_raw" json:"include_raw"`
	Format     PackageFormat `yaml:"format" json:"format"`
}

// StorageConfig holds content-addressed store settings, including the
// optional case-index and blob-mirror backends (SPEC_FULL.md §3).
type StorageConfig struct {
	Root        string `yaml:"root" json:"root"`
	IndexDSN    string `yaml:"index_dsn" json:"index_dsn"` // "" | "sqlite://path" | "postgres://..."
	LockRedisDSN string `yaml:"lock_redis_dsn" json:"lock_redis_dsn"`
	MirrorS3Bucket  string `yaml:"mirror_s3_bucket" json:"mirror_s3_bucket"`
	MirrorGCSBucket string `yaml:"mirror_gcs_bucket" json:"mirror_gcs_bucket"`
}

// Config is the process-wide, read-only configuration root (§5).
type Config struct {
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Analyze   AnalyzeConfig   `yaml:"analyze" json:"analyze"`
	Correlate CorrelateConfig `yaml:"correlate" json:"correlate"`
	Summary   SummaryConfig   `yaml:"summary" json:"summary"`
	Package   PackageConfig   `yaml:"package" json:"package"`
}

// Default returns the configuration with every spec §6 default applied.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Root: "./evidence-store",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Analyze: AnalyzeConfig{
			MaxConcurrency: 5,
			Force:          false,
		},
		Correlate: CorrelateConfig{
			AIResolve:         false,
			AIResolveMaxCalls: 50,
		},
		Summary: SummaryConfig{
			CaseType:       CaseGeneric,
			ChunkThreshold: 50,
			ChunkSize:      30,
		},
		Package: PackageConfig{
			IncludeRaw: false,
			Format:     FormatZip,
		},
	}
}

// Load reads configuration from environment variables, falling back to
// spec-mandated defaults. Mirrors the teacher's env-first Load() shape.
func Load() *Config {
	cfg := Default()

	if v := os.Getenv("EVIDENCE_STORAGE_ROOT"); v != "" {
		cfg.Storage.Root = v
	}
	if v := os.Getenv("EVIDENCE_STORAGE_INDEX_DSN"); v != "" {
		cfg.Storage.IndexDSN = v
	}
	if v := os.Getenv("EVIDENCE_STORAGE_LOCK_REDIS_DSN"); v != "" {
		cfg.Storage.LockRedisDSN = v
	}
	if v := os.Getenv("EVIDENCE_STORAGE_MIRROR_S3_BUCKET"); v != "" {
		cfg.Storage.MirrorS3Bucket = v
	}
	if v := os.Getenv("EVIDENCE_STORAGE_MIRROR_GCS_BUCKET"); v != "" {
		cfg.Storage.MirrorGCSBucket = v
	}

	if v := os.Getenv("EVIDENCE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("EVIDENCE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("EVIDENCE_LLM_MODEL_REVISION"); v != "" {
		cfg.LLM.ModelRevision = v
	}
	cfg.LLM.APIKey = os.Getenv("EVIDENCE_LLM_API_KEY")

	if v := os.Getenv("EVIDENCE_ANALYZE_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Analyze.MaxConcurrency = n
		}
	}
	cfg.Analyze.Force = os.Getenv("EVIDENCE_ANALYZE_FORCE") == "true"

	cfg.Correlate.AIResolve = os.Getenv("EVIDENCE_CORRELATE_AI_RESOLVE") == "true"
	if v := os.Getenv("EVIDENCE_CORRELATE_AI_RESOLVE_MAX_CALLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Correlate.AIResolveMaxCalls = n
		}
	}

	if v := os.Getenv("EVIDENCE_SUMMARY_CASE_TYPE"); v != "" {
		cfg.Summary.CaseType = CaseType(v)
	}
	if v := os.Getenv("EVIDENCE_SUMMARY_CHUNK_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Summary.ChunkThreshold = n
		}
	}
	if v := os.Getenv("EVIDENCE_SUMMARY_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Summary.ChunkSize = n
		}
	}

	cfg.Package.IncludeRaw = os.Getenv("EVIDENCE_PACKAGE_INCLUDE_RAW") == "true"
	if v := os.Getenv("EVIDENCE_PACKAGE_FORMAT"); v != "" {
		cfg.Package.Format = PackageFormat(v)
	}

	return cfg
}

// LoadFile parses a YAML configuration document, layering it over the
// spec-mandated defaults so a partial file is always valid.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for the obvious fatal-before-any-I/O
// problems described in spec §7 (ConfigError).
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return fmt.Errorf("config: storage.root must not be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: llm.model must not be empty")
	}
	if c.Analyze.MaxConcurrency <= 0 {
		return fmt.Errorf("config: analyze.max_concurrency must be positive")
	}
	if c.Correlate.AIResolveMaxCalls < 0 {
		return fmt.Errorf("config: correlate.ai_resolve_max_calls must not be negative")
	}
	if c.Summary.ChunkThreshold <= 0 || c.Summary.ChunkSize <= 0 {
		return fmt.Errorf("config: summary.chunk_threshold and chunk_size must be positive")
	}
	switch c.Summary.CaseType {
	case CaseGeneric, CaseWorkplace, CaseEmployment, CaseContract:
	default:
		return fmt.Errorf("config: summary.case_type %q not recognized", c.Summary.CaseType)
	}
	switch c.Package.Format {
	case FormatZip, FormatDirectory:
	default:
		return fmt.Errorf("config: package.format %q not recognized", c.Package.Format)
	}
	return nil
}
