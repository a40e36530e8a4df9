package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`

	// Optional: enables the conversation store
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"0"`

	RAGURL     string        `envconfig:"RAG_URL"`
	RAGAPIKey  string        `envconfig:"RAG_API_KEY"`
	RAGTimeout time.Duration `envconfig:"RAG_TIMEOUT" default:"8s"`
	StateCode  string        `envconfig:"STATE_CODE" default:"MS"`

	SearchURL     string        `envconfig:"SEARCH_URL"`
	SearchTimeout time.Duration `envconfig:"SEARCH_TIMEOUT" default:"6s"`

	LLMProvider    string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiAPIKey   string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel    string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	OpenAIAPIKey   string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel    string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	LLMTimeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"15s"`
	LLMTemperature float32       `envconfig:"LLM_TEMPERATURE" default:"0.7"`

	CacheSize      int           `envconfig:"CACHE_SIZE" default:"100"`
	ResolveTimeout time.Duration `envconfig:"RESOLVE_TIMEOUT" default:"20s"`

	KnowledgeFile  string `envconfig:"KNOWLEDGE_FILE"`
	KnowledgeS3Key string `envconfig:"KNOWLEDGE_S3_KEY"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"guata-knowledge"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	RecordFlushInterval time.Duration `envconfig:"RECORD_FLUSH_INTERVAL" default:"5s"`
	RecordQueueSize     int           `envconfig:"RECORD_QUEUE_SIZE" default:"256"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GUATA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate rejects values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q: expected %q or %q", c.LLMProvider, ProviderGemini, ProviderOpenAI)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	if c.RecordQueueSize <= 0 {
		return fmt.Errorf("RECORD_QUEUE_SIZE must be positive, got %d", c.RecordQueueSize)
	}
	return nil
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasRAG() bool {
	return c.RAGURL != ""
}

// EffectiveSearchURL falls back to the RAG endpoint when no dedicated
// search endpoint is configured.
func (c *Config) EffectiveSearchURL() string {
	if c.SearchURL != "" {
		return c.SearchURL
	}
	return c.RAGURL
}

func (c *Config) HasGemini() bool {
	return c.GeminiAPIKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasGenerator reports whether the selected LLM provider has credentials.
func (c *Config) HasGenerator() bool {
	switch c.LLMProvider {
	case ProviderGemini:
		return c.HasGemini()
	case ProviderOpenAI:
		return c.HasOpenAI()
	}
	return false
}
