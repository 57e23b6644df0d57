package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Auth    AuthConfig
	Backend BackendConfig
	State   StateConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	// OtelEnabled turns on trace export; off by default so local runs stay
	// quiet without a collector.
	OtelEnabled  bool
	OtelEndpoint string
}

type AuthConfig struct {
	// ProviderURL is the base URL of the OTP identity provider.
	ProviderURL string
	// AnonKey is the provider's public API key, sent with every auth call.
	AnonKey string
	// PublicRoutePrefixes lists routes exempt from auth initialization.
	PublicRoutePrefixes []string
}

type BackendConfig struct {
	// APIBaseURL is the admin backend the dashboard reads workspaces and
	// documents from.
	APIBaseURL string
	// UploadLimitBytes caps document uploads before they reach the backend.
	UploadLimitBytes int
}

type StateConfig struct {
	// FilePath locates the durable key-value state file (tenant key,
	// cached profile, persisted session). Ignored when RedisURL is set.
	FilePath string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "dashboard.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Auth: AuthConfig{
			ProviderURL:         getEnv("AUTH_PROVIDER_URL", "http://localhost:9999"),
			AnonKey:             getEnv("AUTH_ANON_KEY", ""),
			PublicRoutePrefixes: getEnvAsList("PUBLIC_ROUTES", "/,/auth/login,/auth/verify-otp"),
		},
		Backend: BackendConfig{
			APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
			UploadLimitBytes: getEnvAsInt("UPLOAD_LIMIT_BYTES", 10*1024*1024),
		},
		State: StateConfig{
			FilePath: getEnv("STATE_FILE_PATH", ".dashboard-state.json"),
		},
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

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
