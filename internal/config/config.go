// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	DatabasePath string
	JWTSecretKey string

	// Hosted assistant configuration. The assistant and its vector store are
	// provisioned on the provider side; this service only references them.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	AssistantID   string
	VectorStoreID string

	// Upload limits per file.
	MaxUploadBytes    int64
	AllowedExtensions []string

	Environment string
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8001"),
		DatabasePath:  getEnv("DATABASE_PATH", "docchat.db"),
		JWTSecretKey:  getEnv("JWT_SECRET_KEY", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		AssistantID:   getEnv("ASSISTANT_ID", ""),
		VectorStoreID: getEnv("VECTOR_STORE_ID", ""),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) * 1024 * 1024,
		AllowedExtensions: strings.Split(
			getEnv("ALLOWED_EXTENSIONS", ".pdf,.txt,.docx,.md,.json,.csv"), ","),
		Environment: env,
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if cfg.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if cfg.AssistantID == "" {
			missing = append(missing, "ASSISTANT_ID")
		}
		if cfg.VectorStoreID == "" {
			missing = append(missing, "VECTOR_STORE_ID")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
