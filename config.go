package linguagw

import "time"

// Config holds the configuration for the translation gateway.
type Config struct {
	// Server settings for the HTTP listener.
	Server ServerConfig `json:"server" yaml:"server"`
	// Auth holds the shared-secret settings for write endpoints.
	Auth AuthConfig `json:"auth" yaml:"auth"`
	// Backend selects and configures the LLM collaborator.
	Backend BackendConfig `json:"backend" yaml:"backend"`
	// Tiers maps service tiers (free, pro) to model identifiers.
	Tiers TierConfig `json:"tiers" yaml:"tiers"`
	// Memory configures the file-backed translation memory.
	Memory StoreConfig `json:"memory" yaml:"memory"`
	// Glossary configures the file-backed glossary store.
	Glossary StoreConfig `json:"glossary" yaml:"glossary"`
	// Detection configures language auto-detection.
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	// Batch bounds batch translation requests.
	Batch BatchConfig `json:"batch" yaml:"batch"`
	// RateLimit configures optional per-IP request limiting.
	RateLimit RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	// RequestLog configures the optional SQL audit log.
	RequestLog RequestLogConfig `json:"request_log,omitempty" yaml:"request_log,omitempty"`
	// CircuitBreaker optionally guards collaborator calls.
	CircuitBreaker *BreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

// AuthConfig holds the internal API key checked on write endpoints.
// The key is normally supplied via the INTERNAL_API_KEY environment
// variable rather than the config file.
type AuthConfig struct {
	InternalAPIKey string `json:"internal_api_key,omitempty" yaml:"internal_api_key,omitempty"`
}

// Backend name constants.
const (
	BackendOpenAI  = "openai"
	BackendBedrock = "bedrock"
)

// BackendConfig selects the collaborator implementation.
type BackendConfig struct {
	// Name is "openai" (default) or "bedrock".
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// BaseURL overrides the OpenAI API endpoint (tests, proxies).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Region is the AWS region for the bedrock backend.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	// TimeoutSeconds bounds a single translation call. Defaults to 10.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// Timeout returns the per-call deadline for translation requests.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// TierConfig maps service tiers to model identifiers.
type TierConfig struct {
	Free string `json:"free" yaml:"free"`
	Pro  string `json:"pro" yaml:"pro"`
}

// StoreConfig points a file-backed store at its persistence file.
type StoreConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// DetectionConfig controls language auto-detection.
type DetectionConfig struct {
	// DefaultSource is returned when detection fails entirely. Defaults to "en".
	DefaultSource string `json:"default_source,omitempty" yaml:"default_source,omitempty"`
	// DefaultTarget is suggested when the source language has no common pair.
	// Defaults to "zh".
	DefaultTarget string `json:"default_target,omitempty" yaml:"default_target,omitempty"`
	// TimeoutSeconds bounds the collaborator classification call. Defaults to 5.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// Timeout returns the deadline for a single detection call.
func (d DetectionConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// BatchConfig bounds batch translation requests.
type BatchConfig struct {
	// MaxItems caps the number of texts per batch. Defaults to 100.
	MaxItems int `json:"max_items,omitempty" yaml:"max_items,omitempty"`
	// MaxTotalChars caps the combined character count. Defaults to 10000.
	MaxTotalChars int `json:"max_total_chars,omitempty" yaml:"max_total_chars,omitempty"`
	// DefaultConcurrency is used when a request omits max_concurrent. Defaults to 5.
	DefaultConcurrency int `json:"default_concurrency,omitempty" yaml:"default_concurrency,omitempty"`
}

// RateLimitConfig configures per-IP token-bucket limiting. Disabled when
// RequestsPerSecond is zero.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
	Burst             float64 `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// RequestLogConfig configures the SQL audit log. Driver is "sqlite"
// (default) or "postgres"; an empty driver with an empty DSN disables it.
type RequestLogConfig struct {
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// BreakerConfig configures the collaborator circuit breaker.
type BreakerConfig struct {
	FailureThreshold int    `json:"failure_threshold" yaml:"failure_threshold"`
	SuccessThreshold int    `json:"success_threshold" yaml:"success_threshold"`
	Timeout          string `json:"timeout" yaml:"timeout"`
}

// MaxTextChars is the per-text length limit shared by the single and batch
// translation paths.
const MaxTextChars = 1000

// applyDefaults fills zero-valued fields with the documented defaults.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Backend.Name == "" {
		c.Backend.Name = BackendOpenAI
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if c.Tiers.Free == "" {
		c.Tiers.Free = "gpt-4o-mini"
	}
	if c.Tiers.Pro == "" {
		c.Tiers.Pro = "gpt-4o"
	}
	if c.Memory.Path == "" {
		c.Memory.Path = "translation_memory.json"
	}
	if c.Glossary.Path == "" {
		c.Glossary.Path = "glossaries.json"
	}
	if c.Detection.DefaultSource == "" {
		c.Detection.DefaultSource = "en"
	}
	if c.Detection.DefaultTarget == "" {
		c.Detection.DefaultTarget = "zh"
	}
	if c.Detection.TimeoutSeconds <= 0 {
		c.Detection.TimeoutSeconds = 5
	}
	if c.Batch.MaxItems <= 0 {
		c.Batch.MaxItems = 100
	}
	if c.Batch.MaxTotalChars <= 0 {
		c.Batch.MaxTotalChars = 10000
	}
	if c.Batch.DefaultConcurrency <= 0 {
		c.Batch.DefaultConcurrency = 5
	}
}

// DefaultConfig returns a Config with every default applied, suitable for
// running without a config file.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}
