package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// configVarEnv змінна шаблону, її змінна оточення та значення за замовчуванням
type configVarEnv struct {
	name       string
	env        string
	defaultVal interface{}
}

var configVarsFromEnv = []configVarEnv{
	{"api_server_host", "API_SERVER_HOST", "localhost"},
	{"api_server_port", "API_SERVER_PORT", 8080},
	{"log_format", "LOG_FORMAT", "text"},

	{"db_host", "DB_HOST", "localhost"},
	{"db_port", "DB_PORT", 5432},
	{"db_name", "DB_NAME", "go_starter"},
	{"db_user", "DB_USER", "starter"},
	{"db_ssl_mode", "DB_SSL_MODE", "disable"},

	{"session_max_age", "SESSION_MAX_AGE", "120h"},
	{"callback_base_url", "CALLBACK_BASE_URL", "http://localhost:8080"},

	{"identity_base_url", "IDENTITY_BASE_URL", ""},
	{"identity_project_id", "IDENTITY_PROJECT_ID", ""},

	{"cors_allowed_origins", "CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"},

	{"redis_enabled", "REDIS_ENABLED", false},
	{"redis_host", "REDIS_HOST", "localhost"},
	{"redis_port", "REDIS_PORT", 6379},
}

// DefaultConfigVars повертає змінні шаблону для режиму (local, staging, production).
// Значення беруться зі змінних оточення, інакше за замовчуванням.
func DefaultConfigVars(mode, version string) map[string]interface{} {
	vars := map[string]interface{}{
		"build_version": version,
		"environment":   environmentForMode(mode),
		"test_bypass":   mode != "production",
	}

	for _, v := range configVarsFromEnv {
		setVarFromEnv(vars, v.name, v.env, v.defaultVal)
	}
	setVarFromEnv(vars, "log_level", "LOG_LEVEL", logLevelForMode(mode))

	// Секрет для розробки; в production має прийти з AUTH_SECRET
	if mode == "production" {
		setVarFromEnv(vars, "auth_secret", "AUTH_SECRET", "")
	} else {
		setVarFromEnv(vars, "auth_secret", "AUTH_SECRET", "dev-session-secret-change-in-production")
	}

	return vars
}

// LoadConfigVars читає JSON файл з перевизначеннями змінних шаблону
func LoadConfigVars(path string) (map[string]interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config vars file: %w", err)
	}

	var vars map[string]interface{}
	if err := json.Unmarshal(content, &vars); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config vars: %w", err)
	}

	// JSON числа приходять як float64
	for k, v := range vars {
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			vars[k] = int(f)
		}
	}

	return vars, nil
}

// setVarFromEnv встановлює змінну з оточення або дефолтне значення
func setVarFromEnv(vars map[string]interface{}, key, envKey string, defaultValue interface{}) {
	if envValue := os.Getenv(envKey); envValue != "" {
		vars[key] = envValue
	} else {
		vars[key] = defaultValue
	}
}

func environmentForMode(mode string) string {
	if mode == "local" || mode == "" {
		return "development"
	}
	return mode
}

// logLevelForMode повертає рівень логування для режиму
func logLevelForMode(mode string) string {
	switch mode {
	case "production":
		return "warn"
	case "staging":
		return "info"
	default:
		return "debug"
	}
}
