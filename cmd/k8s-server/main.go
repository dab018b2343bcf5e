// HTTP сервер для Kubernetes - читає конфігурацію зі змінних середовища
package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"go-starter/internal/config"
)

func main() {
	cfg := loadConfigFromEnv()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := config.StartServer(cfg); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfigFromEnv() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         getEnv("HOST", "0.0.0.0"),
			Port:         getEnvInt("PORT", 8080),
			Environment:  getEnv("MODE", "production"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "json"),
			ReadTimeout:  getEnv("READ_TIMEOUT", "30s"),
			WriteTimeout: getEnv("WRITE_TIMEOUT", "30s"),
			IdleTimeout:  getEnv("IDLE_TIMEOUT", "120s"),
		},

		Database: config.DatabaseConfig{
			Driver:                "postgres",
			Host:                  getEnv("DB_HOST", "postgres-service"),
			Port:                  getEnvInt("DB_PORT", 5432),
			Name:                  getEnv("DB_NAME", "go_starter"),
			User:                  getEnv("DB_USER", "starter"),
			Password:              getEnv("DB_PASSWORD", ""),
			SSLMode:               getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConnections:    getEnvInt("DB_MAX_OPEN_CONNECTIONS", 10),
			MaxIdleConnections:    getEnvInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnectionMaxLifetime: getEnv("DB_CONN_MAX_LIFETIME", "5m"),
		},

		Auth: config.AuthConfig{
			Secret:           getEnv("AUTH_SECRET", ""),
			Issuer:           getEnv("AUTH_ISSUER", "go-starter"),
			SessionMaxAge:    getEnv("SESSION_MAX_AGE", "120h"),
			RefreshThreshold: getEnv("SESSION_REFRESH_THRESHOLD", "5m"),
			CallbackBaseURL:  getEnv("CALLBACK_BASE_URL", "http://localhost:8080"),
			Providers:        providersFromEnv(),
		},

		Identity: &config.IdentityConfig{
			BaseURL:      getEnv("IDENTITY_BASE_URL", ""),
			ProjectID:    getEnv("IDENTITY_PROJECT_ID", ""),
			APIKey:       getEnv("IDENTITY_API_KEY", ""),
			EmulatorHost: getEnv("IDENTITY_EMULATOR_HOST", ""),
		},

		Security: config.SecurityConfig{
			CORS: config.CORSConfig{
				AllowedOrigins:   splitEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
				AllowCredentials: true,
				MaxAge:           3600,
			},
		},

		Redis: &config.RedisConfig{
			Enabled:    getEnv("REDIS_ENABLED", "false") == "true",
			Host:       getEnv("REDIS_HOST", "redis-service"),
			Port:       getEnvInt("REDIS_PORT", 6379),
			Password:   getEnv("REDIS_PASSWORD", ""),
			MaxRetries: 3,
			PoolSize:   10,
		},
	}

	if bypass, ok := os.LookupEnv("TEST_BYPASS"); ok {
		enabled := bypass == "true"
		cfg.Auth.Cookies = &config.CookiesConfig{TestBypass: &enabled}
	}

	return cfg
}

// providersFromEnv додає провайдер, якщо задані його client id та secret
func providersFromEnv() []config.ProviderConfig {
	var providers []config.ProviderConfig
	for _, name := range []string{"google", "github"} {
		prefix := strings.ToUpper(name)
		id, secret := getEnv(prefix+"_CLIENT_ID", ""), getEnv(prefix+"_CLIENT_SECRET", "")
		if id == "" || secret == "" {
			continue
		}
		providers = append(providers, config.ProviderConfig{
			Name:         name,
			ClientID:     id,
			ClientSecret: secret,
		})
	}
	return providers
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitEnv(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
