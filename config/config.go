package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// Auth
	JWTSecret     string
	EncryptionKey string

	// OpenAI (primary provider)
	OpenAIAPIKey   string
	LLMModel       string
	EmbeddingModel string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int

	// Ollama (secondary local provider)
	OllamaURL            string
	OllamaModel          string
	OllamaEmbeddingModel string

	// OAuth - Google (Gmail mailbox provider)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Automation
	DefaultPollInterval time.Duration
	MaxRetrievalQueries int
	RetrievalTopK       int
	RetrievalMinScore   float64

	// Knowledge cache
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Training
	DatasetDir        string
	TrainingBatchSize int
	TrainingEnabled   bool
	FineTuneBaseModel string

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "mailflow"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Auth
		JWTSecret:     getEnv("JWT_SECRET", ""),
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 60),

		// Ollama
		OllamaURL:            getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:          getEnv("OLLAMA_MODEL", "llama3.1"),
		OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),

		// OAuth - Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		// Automation
		DefaultPollInterval: time.Duration(getEnvInt("POLL_INTERVAL_MIN", 5)) * time.Minute,
		MaxRetrievalQueries: getEnvInt("RETRIEVAL_MAX_QUERIES", 2),
		RetrievalTopK:       getEnvInt("RETRIEVAL_TOP_K", 2),
		RetrievalMinScore:   getEnvFloat("RETRIEVAL_MIN_SCORE", 0.7),

		// Knowledge cache
		CacheTTL:        time.Duration(getEnvInt("CACHE_TTL_MIN", 30)) * time.Minute,
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 1000),

		// Training
		DatasetDir:        getEnv("DATASET_DIR", "./data/training"),
		TrainingBatchSize: getEnvInt("TRAINING_BATCH_SIZE", 50),
		TrainingEnabled:   getEnvBool("TRAINING_ENABLED", false),
		FineTuneBaseModel: getEnv("FINE_TUNE_BASE_MODEL", "gpt-4o-mini-2024-07-18"),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
