package configs

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

var global *Config

type Config struct {
	HTTPPort int `env:"CHATBOT_PORT" envDefault:"8080"`

	// Database - Read/Write Split (required, no default)
	DBPostgresqlWriteDSN string `env:"DB_POSTGRESQL_WRITE_DSN,notEmpty"`
	DBPostgresqlRead1DSN string `env:"DB_POSTGRESQL_READ1_DSN"` // Optional read replica

	EmbeddingServiceURL     string        `env:"EMBEDDING_SERVICE_URL" envDefault:"http://localhost:8091"`
	EmbeddingDimension      int           `env:"EMBEDDING_DIMENSION" envDefault:"768"`
	EmbeddingCacheType      string        `env:"EMBEDDING_CACHE_TYPE" envDefault:"memory"`
	EmbeddingCacheTTL       time.Duration `env:"EMBEDDING_CACHE_TTL" envDefault:"1h"`
	EmbeddingCacheMaxSize   int           `env:"EMBEDDING_CACHE_MAX_SIZE" envDefault:"10000"`
	EmbeddingCacheRedisURL  string        `env:"EMBEDDING_CACHE_REDIS_URL" envDefault:"redis://redis:6379/3"`
	EmbeddingCacheKeyPrefix string        `env:"EMBEDDING_CACHE_KEY_PREFIX" envDefault:"emb:"`

	ValidateEmbedding        bool          `env:"VALIDATE_EMBEDDING_ON_START" envDefault:"true"`
	ValidateEmbeddingTimeout time.Duration `env:"VALIDATE_EMBEDDING_TIMEOUT" envDefault:"10s"`

	LLMBaseURL     string        `env:"LLM_BASE_URL"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	LLMModel       string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTemperature float32       `env:"LLM_TEMPERATURE" envDefault:"0"`
	LLMMaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`

	RetrievalK          int     `env:"RETRIEVAL_K" envDefault:"5"`
	RetrievalCandidates int     `env:"RETRIEVAL_NUM_CANDIDATES" envDefault:"100"`
	RetrievalMinScore   float32 `env:"RETRIEVAL_MIN_SCORE" envDefault:"0.7"`
	ContextBudget       int     `env:"CONTEXT_BUDGET_CHARS" envDefault:"1500"`

	MemoryMinAnswerLength int `env:"MEMORY_MIN_ANSWER_LENGTH" envDefault:"50"`

	DocumentChunkSize    int `env:"DOCUMENT_CHUNK_SIZE" envDefault:"500"`
	DocumentChunkOverlap int `env:"DOCUMENT_CHUNK_OVERLAP" envDefault:"50"`

	DedupThreshold  float32 `env:"DEDUP_SIMILARITY_THRESHOLD" envDefault:"0.85"`
	DedupTopN       int     `env:"DEDUP_TOP_N" envDefault:"10"`
	DedupBatchLimit int     `env:"DEDUP_BATCH_LIMIT" envDefault:"500"`
	DedupCronSpec   string  `env:"DEDUP_CRON_SPEC" envDefault:"*/15 * * * *"`
	DedupEnabled    bool    `env:"DEDUP_ENABLED" envDefault:"true"`
	DedupLockName   string  `env:"DEDUP_LOCK_NAME" envDefault:"chatbot:dedup:catalog"`

	RunTrackingEnabled bool `env:"RUN_TRACKING_ENABLED" envDefault:"true"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	StreamTimeout  time.Duration `env:"STREAM_TIMEOUT" envDefault:"180s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`

	APIKey string `env:"CHATBOT_API_KEY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	global = cfg
	return cfg, nil
}

func GetGlobal() *Config {
	return global
}

// GetDatabaseWriteDSN returns the write database connection string.
func (c *Config) GetDatabaseWriteDSN() string {
	return c.DBPostgresqlWriteDSN
}

// GetDatabaseReadDSN returns the read database connection string.
// If DB_POSTGRESQL_READ1_DSN is set, it returns that.
// Otherwise, falls back to write DSN (no replica configured).
func (c *Config) GetDatabaseReadDSN() string {
	if c.DBPostgresqlRead1DSN != "" {
		return c.DBPostgresqlRead1DSN
	}
	return c.GetDatabaseWriteDSN()
}
