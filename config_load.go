package linguagw

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// configSchema is the structural contract for a gateway config file.
// ValidateConfig checks it before the semantic checks run, so typos like a
// string max_items or an unknown backend fail with a schema error instead of
// silently defaulting.
const configSchema = `{
  "type": "object",
  "properties": {
    "server": {
      "type": "object",
      "properties": {
        "addr": {"type": "string"},
        "cors_origins": {"type": "array", "items": {"type": "string"}}
      }
    },
    "auth": {
      "type": "object",
      "properties": {"internal_api_key": {"type": "string"}}
    },
    "backend": {
      "type": "object",
      "properties": {
        "name": {"enum": ["", "openai", "bedrock"]},
        "base_url": {"type": "string"},
        "region": {"type": "string"},
        "timeout_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "tiers": {
      "type": "object",
      "properties": {
        "free": {"type": "string"},
        "pro": {"type": "string"}
      }
    },
    "memory": {"type": "object", "properties": {"path": {"type": "string"}}},
    "glossary": {"type": "object", "properties": {"path": {"type": "string"}}},
    "detection": {
      "type": "object",
      "properties": {
        "default_source": {"type": "string"},
        "default_target": {"type": "string"},
        "timeout_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "batch": {
      "type": "object",
      "properties": {
        "max_items": {"type": "integer", "minimum": 0},
        "max_total_chars": {"type": "integer", "minimum": 0},
        "default_concurrency": {"type": "integer", "minimum": 0}
      }
    },
    "rate_limit": {
      "type": "object",
      "properties": {
        "requests_per_second": {"type": "number", "minimum": 0},
        "burst": {"type": "number", "minimum": 0}
      }
    },
    "request_log": {
      "type": "object",
      "properties": {
        "driver": {"enum": ["", "sqlite", "postgres"]},
        "dsn": {"type": "string"}
      }
    },
    "circuit_breaker": {
      "type": "object",
      "properties": {
        "failure_threshold": {"type": "integer", "minimum": 1},
        "success_threshold": {"type": "integer", "minimum": 1},
        "timeout": {"type": "string"}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("config.schema.json", configSchema)

// LoadConfig reads and parses a config file from the given path, applies
// environment overrides (INTERNAL_API_KEY, PORT), and fills defaults.
// Supported formats: JSON (.json), YAML (.yaml, .yml).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	applyEnvOverrides(&cfg)
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnvOverrides lets environment variables win over file values for the
// settings that are usually injected at deploy time.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("INTERNAL_API_KEY"); key != "" {
		cfg.Auth.InternalAPIKey = key
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
}

// ValidateConfig validates a Config for correctness: first structurally
// against the embedded JSON Schema, then semantically.
func ValidateConfig(cfg Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config for validation: %w", err)
	}
	var inst interface{}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&inst); err != nil {
		return fmt.Errorf("decoding config for validation: %w", err)
	}
	if err := compiledSchema.Validate(inst); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	switch cfg.Backend.Name {
	case "", BackendOpenAI, BackendBedrock:
	default:
		return fmt.Errorf("unknown backend: %q", cfg.Backend.Name)
	}

	if cfg.Batch.MaxItems < 0 || cfg.Batch.MaxTotalChars < 0 || cfg.Batch.DefaultConcurrency < 0 {
		return fmt.Errorf("batch limits must not be negative")
	}

	if cb := cfg.CircuitBreaker; cb != nil {
		if cb.FailureThreshold <= 0 {
			return fmt.Errorf("circuit_breaker.failure_threshold must be positive")
		}
		if cb.Timeout != "" {
			if _, err := time.ParseDuration(cb.Timeout); err != nil {
				return fmt.Errorf("circuit_breaker.timeout: %w", err)
			}
		}
	}

	if cfg.RequestLog.Driver == "postgres" && cfg.RequestLog.DSN == "" {
		return fmt.Errorf("request_log.dsn is required for the postgres driver")
	}

	return nil
}
