// Package config provides application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds all configuration values.
type Config struct {
	// Server
	Port string

	// Pinecone protocol index
	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string
	RerankModel       string

	// OpenAI generation
	OpenAIAPIKey string
	LLMModel     string

	// Local data
	PatientsDir string
	CacheDir    string
	TasksFile   string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Port: getEnv("PORT", "5001"),

		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", "protocols"),
		RerankModel:       getEnv("CAREASSIST_RERANK_MODEL", "bge-reranker-v2-m3"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		LLMModel:     getEnv("CAREASSIST_LLM_MODEL", "gpt-4-turbo-preview"),

		PatientsDir: getEnv("CAREASSIST_PATIENTS_DIR", "./data/patients"),
		CacheDir:    getEnv("CAREASSIST_CACHE_DIR", "./data/task_assistance_outputs"),
		TasksFile:   getEnv("CAREASSIST_TASKS_FILE", ""),

		LogFile:  getEnv("CAREASSIST_LOG_FILE", "/tmp/careassist.log"),
		LogLevel: parseLogLevel(getEnv("CAREASSIST_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
