// Package config loads the process-wide typed configuration via
// viper, reading environment variables and an optional config file.
// Load is idempotent-singleton by convention: callers invoke it once
// at process start and pass the result down explicitly.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration object, its sections mirroring the
// environment variables this service reads at startup.
type Config struct {
	Database   DatabaseConfig
	VectorDB   VectorDBConfig
	Redis      RedisConfig
	Files      FilesConfig
	Documents  DocumentsConfig
	Analytics  AnalyticsConfig
	Chat       ChatConfig
	Auditor    AuditorConfig
	LLM        LLMConfig
	Server     ServerConfig
	Blobs      BlobConfig
	DeepResearchKillSwitch bool
	RunMCPStack            bool
}

// BlobConfig points the document ingest pipeline's object-storage
// backend at an S3-compatible MinIO endpoint.
type BlobConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ServerConfig governs the HTTP listener.
type ServerConfig struct {
	Port string
}

// LLMConfig points the chat pipeline's default model, the query-spec
// parser's LLM fallback, and the SQL generator's narrator at a single
// OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	ModelID string
}

type DatabaseConfig struct {
	DSN string
}

// VectorDBConfig configures the Qdrant client shared by the RAG context service and document ingestion.
type VectorDBConfig struct {
	Host          string
	Port          int
	Collection    string
	EmbeddingDim  int
}

type RedisConfig struct {
	URL string
}

// FilesConfig governs raw uploaded files: MaxSizeBytes is the upload
// size cap DocumentHandler enforces; TTLDays is their lifetime in days.
type FilesConfig struct {
	MaxSizeBytes int64
	TTLDays      int
}

// DocumentsConfig governs document ingestion's extracted-text cache and chunk TTL.
type DocumentsConfig struct {
	TTLHours               int
	CacheTTLSeconds        int
	AllowFullTextFallback  bool
}

// AnalyticsConfig governs the SQL validator/the SQL generator/the analytics service's warehouse access.
type AnalyticsConfig struct {
	AllowedTables []string
	MaxLimit      int
	DefaultTopN   int
}

// ChatConfig governs the chat pipeline's streaming and token-budget behavior.
type ChatConfig struct {
	QueueSize          int
	MaxTokensCeiling   int
	MaxTokensFloor     int
	SafetyMarginTokens int
}

type AuditorConfig struct {
	Enabled        bool
	URL            string
	TimeoutSeconds int
}

// Load reads configuration from environment variables (prefixed
// implicitly via viper's AutomaticEnv) with sane defaults, mirroring
// the variable names this service reads at startup.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.dsn", "postgres://localhost:5432/bankcopilot?sslmode=disable")
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection_name", "bank_knowledge")
	v.SetDefault("qdrant.embedding_dim", 384)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("max_file_size", 20*1024*1024)
	v.SetDefault("files_ttl_days", 30)
	v.SetDefault("documents_ttl_hours", 24)
	v.SetDefault("documents_cache_ttl_seconds", 3600)
	v.SetDefault("documents_allow_full_text_fallback", true)
	v.SetDefault("analytics_allowed_tables", []string{
		"monthly_kpis", "metricas_cartera_segmentada", "metricas_financieras_ext",
	})
	v.SetDefault("analytics_max_limit", 1000)
	v.SetDefault("analytics_default_top_n", 10)
	v.SetDefault("chat_queue_size", 10)
	v.SetDefault("chat_max_tokens_ceiling", 4096)
	v.SetDefault("chat_max_tokens_floor", 500)
	v.SetDefault("chat_safety_margin_tokens", 512)
	v.SetDefault("use_mcp_auditor", false)
	v.SetDefault("capital414_auditor_url", "")
	v.SetDefault("capital414_auditor_timeout", 120)
	v.SetDefault("deep_research_kill_switch", false)
	v.SetDefault("run_mcp_stack", false)
	v.SetDefault("server_port", "8080")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_model_id", "gpt-4o-mini")
	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_bucket", "bankcopilot-documents")
	v.SetDefault("minio_use_ssl", false)

	if err := v.BindEnv("qdrant.host", "QDRANT_HOST"); err != nil {
		return nil, fmt.Errorf("bind QDRANT_HOST: %w", err)
	}
	if err := v.BindEnv("qdrant.port", "QDRANT_PORT"); err != nil {
		return nil, fmt.Errorf("bind QDRANT_PORT: %w", err)
	}
	if err := v.BindEnv("qdrant.collection_name", "QDRANT_COLLECTION_NAME"); err != nil {
		return nil, fmt.Errorf("bind QDRANT_COLLECTION_NAME: %w", err)
	}
	if err := v.BindEnv("qdrant.embedding_dim", "QDRANT_EMBEDDING_DIM"); err != nil {
		return nil, fmt.Errorf("bind QDRANT_EMBEDDING_DIM: %w", err)
	}
	if err := v.BindEnv("redis.url", "REDIS_URL"); err != nil {
		return nil, fmt.Errorf("bind REDIS_URL: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{DSN: v.GetString("database.dsn")},
		VectorDB: VectorDBConfig{
			Host:         v.GetString("qdrant.host"),
			Port:         v.GetInt("qdrant.port"),
			Collection:   v.GetString("qdrant.collection_name"),
			EmbeddingDim: v.GetInt("qdrant.embedding_dim"),
		},
		Redis: RedisConfig{URL: v.GetString("redis.url")},
		Files: FilesConfig{
			MaxSizeBytes: v.GetInt64("max_file_size"),
			TTLDays:      v.GetInt("files_ttl_days"),
		},
		Documents: DocumentsConfig{
			TTLHours:              v.GetInt("documents_ttl_hours"),
			CacheTTLSeconds:       v.GetInt("documents_cache_ttl_seconds"),
			AllowFullTextFallback: v.GetBool("documents_allow_full_text_fallback"),
		},
		Analytics: AnalyticsConfig{
			AllowedTables: v.GetStringSlice("analytics_allowed_tables"),
			MaxLimit:      v.GetInt("analytics_max_limit"),
			DefaultTopN:   v.GetInt("analytics_default_top_n"),
		},
		Chat: ChatConfig{
			QueueSize:          v.GetInt("chat_queue_size"),
			MaxTokensCeiling:   v.GetInt("chat_max_tokens_ceiling"),
			MaxTokensFloor:     v.GetInt("chat_max_tokens_floor"),
			SafetyMarginTokens: v.GetInt("chat_safety_margin_tokens"),
		},
		Auditor: AuditorConfig{
			Enabled:        v.GetBool("use_mcp_auditor"),
			URL:            v.GetString("capital414_auditor_url"),
			TimeoutSeconds: v.GetInt("capital414_auditor_timeout"),
		},
		LLM: LLMConfig{
			BaseURL: v.GetString("openai_base_url"),
			APIKey:  v.GetString("openai_api_key"),
			Model:   v.GetString("openai_model"),
			ModelID: v.GetString("openai_model_id"),
		},
		Server: ServerConfig{Port: v.GetString("server_port")},
		Blobs: BlobConfig{
			Endpoint:  v.GetString("minio_endpoint"),
			AccessKey: v.GetString("minio_access_key"),
			SecretKey: v.GetString("minio_secret_key"),
			Bucket:    v.GetString("minio_bucket"),
			UseSSL:    v.GetBool("minio_use_ssl"),
		},
		DeepResearchKillSwitch: v.GetBool("deep_research_kill_switch"),
		RunMCPStack:            v.GetBool("run_mcp_stack"),
	}
	return cfg, nil
}
