package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	HTTPPort     string
	HTTPSPort    string
	Domains      []string
	CertCacheDir string
	DatabaseURL  string
	LogDir       string

	LLMProvider string
	LLMModel    string
	LLMTimeout  time.Duration

	EmbeddingModel      string
	EmbeddingDimensions int

	ChunkSize       int
	ChunkOverlap    int
	TopKResults     int
	MaxFileSizeMB   int
	MaxContextChars int

	InputTokenCostPer1K  float64
	OutputTokenCostPer1K float64

	ReindexInterval time.Duration
	ConversationTTL time.Duration
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		HTTPPort:     getEnv("HTTP_PORT", "8090"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		Domains:      strings.Split(getEnv("DOMAIN", "example.com"), ","),
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		LogDir:       getEnv("LOG_DIR", "logs"),

		LLMProvider: getEnv("LLM_PROVIDER", "groq"),
		LLMModel:    getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTimeout:  time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,

		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),

		ChunkSize:       getEnvAsInt("CHUNK_SIZE", 500),
		ChunkOverlap:    getEnvAsInt("CHUNK_OVERLAP", 50),
		TopKResults:     getEnvAsInt("TOP_K_RESULTS", 5),
		MaxFileSizeMB:   getEnvAsInt("MAX_FILE_SIZE_MB", 20),
		MaxContextChars: getEnvAsInt("MAX_CONTEXT_CHARS", 12000),

		InputTokenCostPer1K:  getEnvAsFloat("INPUT_TOKEN_COST_PER_1K", 0.00059),
		OutputTokenCostPer1K: getEnvAsFloat("OUTPUT_TOKEN_COST_PER_1K", 0.00079),

		ReindexInterval: time.Duration(getEnvAsInt("REINDEX_INTERVAL_SECONDS", 3600)) * time.Second,
		ConversationTTL: time.Duration(getEnvAsInt("CONVERSATION_TTL_MINUTES", 60)) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
