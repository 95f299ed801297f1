package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port string

	// GeminiAPIKey is the single secret for the generative-model service.
	// It is injected at process start; a missing key is a configuration
	// error, never a runtime one.
	GeminiAPIKey string
	ModelName    string

	StorageBackend string // "memory" or "firestore"
	GCPProjectID   string

	UseMockLLM bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads all env vars and builds the config.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("SAKHI_PORT", "8080"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		ModelName:    getEnv("SAKHI_MODEL_NAME", "gemini-2.5-flash"),

		StorageBackend: getEnv("SAKHI_STORAGE_BACKEND", "memory"),
		GCPProjectID:   getEnv("SAKHI_GCP_PROJECT", ""),

		UseMockLLM: getBoolEnv("SAKHI_USE_MOCK_LLM", false),
	}

	if !cfg.UseMockLLM && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("SAKHI_GCP_PROJECT must be set for the firestore backend")
	}

	return cfg, nil
}
