package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	APIPort             string
	PostgresURL         string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	TextModel           string
	ResearchModel       string
	APITokens           string
	ResearchCooldownMs  int
	ResearchMaxOpenURLs int
}

func Load() Config {
	postgresURL := getEnv("POSTGRES_URL", "")
	if postgresURL == "" {
		postgresURL = buildPostgresURL()
	}
	return Config{
		APIPort:             getEnv("API_PORT", "8080"),
		PostgresURL:         postgresURL,
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		TextModel:           getEnv("OPENAI_TEXT_MODEL", "gpt-4o"),
		ResearchModel:       getEnv("OPENAI_RESEARCH_MODEL", "gpt-4o-mini"),
		APITokens:           getEnv("API_TOKENS", ""),
		ResearchCooldownMs:  getEnvInt("RESEARCH_COOLDOWN_MS", 5000),
		ResearchMaxOpenURLs: getEnvInt("RESEARCH_MAX_OPEN_URLS", 2),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func buildPostgresURL() string {
	user := getEnv("POSTGRES_USER", "notiva")
	password := getEnv("POSTGRES_PASSWORD", "notiva")
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	database := getEnv("POSTGRES_DB", "notiva")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, database)
}
