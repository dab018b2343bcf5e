package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go-starter/internal/middleware"
	"go-starter/internal/models"
	"go-starter/internal/services"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty/function"
)

// Config представляє повну конфігурацію додатку
type Config struct {
	Server   ServerConfig    `hcl:"server,block"`
	Database DatabaseConfig  `hcl:"database,block"`
	Auth     AuthConfig      `hcl:"auth,block"`
	Security SecurityConfig  `hcl:"security,block"`
	Identity *IdentityConfig `hcl:"identity,block"`
	Redis    *RedisConfig    `hcl:"redis,block"`
	Metrics  *MetricsConfig  `hcl:"metrics,block"`
}

// ServerConfig містить налаштування HTTP сервера
type ServerConfig struct {
	Host         string `hcl:"host"`
	Port         int    `hcl:"port"`
	Environment  string `hcl:"environment"`
	LogLevel     string `hcl:"log_level,optional"`
	LogFormat    string `hcl:"log_format,optional"`
	ReadTimeout  string `hcl:"read_timeout,optional"`
	WriteTimeout string `hcl:"write_timeout,optional"`
	IdleTimeout  string `hcl:"idle_timeout,optional"`
}

// DatabaseConfig містить налаштування бази даних
type DatabaseConfig struct {
	Driver                string `hcl:"driver,optional"`
	Host                  string `hcl:"host"`
	Port                  int    `hcl:"port"`
	Name                  string `hcl:"name"`
	User                  string `hcl:"user"`
	Password              string `hcl:"password,optional"`
	SSLMode               string `hcl:"ssl_mode,optional"`
	MaxOpenConnections    int    `hcl:"max_open_connections,optional"`
	MaxIdleConnections    int    `hcl:"max_idle_connections,optional"`
	ConnectionMaxLifetime string `hcl:"connection_max_lifetime,optional"`
}

// AuthConfig містить налаштування сесій та провайдерів входу
type AuthConfig struct {
	Secret           string           `hcl:"secret"`
	Issuer           string           `hcl:"issuer,optional"`
	SessionMaxAge    string           `hcl:"session_max_age,optional"`
	RefreshThreshold string           `hcl:"refresh_threshold,optional"`
	StateTTL         string           `hcl:"state_ttl,optional"`
	CallbackBaseURL  string           `hcl:"callback_base_url,optional"`
	Routes           *RoutesConfig    `hcl:"routes,block"`
	Cookies          *CookiesConfig   `hcl:"cookies,block"`
	Providers        []ProviderConfig `hcl:"provider,block"`
}

// RoutesConfig містить налаштування route gate
type RoutesConfig struct {
	PublicPaths   []string `hcl:"public_paths,optional"`
	LoginPath     string   `hcl:"login_path,optional"`
	DashboardPath string   `hcl:"dashboard_path,optional"`
	AuthPrefix    string   `hcl:"auth_prefix,optional"`
	LogSampleRate int      `hcl:"log_sample_rate,optional"`
}

// CookiesConfig містить налаштування cookie
type CookiesConfig struct {
	SessionName       string `hcl:"session_name,optional"`
	Secure            *bool  `hcl:"secure,optional"`
	TestBypass        *bool  `hcl:"test_bypass,optional"`
	BypassName        string `hcl:"bypass_name,optional"`
	BypassSessionName string `hcl:"bypass_session_name,optional"`
	BypassQueryParam  string `hcl:"bypass_query_param,optional"`
}

// ProviderConfig містить налаштування OAuth/OIDC провайдера
type ProviderConfig struct {
	Name         string   `hcl:"name,label"`
	Type         string   `hcl:"type,optional"`
	DisplayName  string   `hcl:"display_name,optional"`
	ClientID     string   `hcl:"client_id"`
	ClientSecret string   `hcl:"client_secret"`
	AuthURL      string   `hcl:"auth_url,optional"`
	TokenURL     string   `hcl:"token_url,optional"`
	UserInfoURL  string   `hcl:"userinfo_url,optional"`
	Scopes       []string `hcl:"scopes,optional"`
}

// IdentityConfig містить налаштування зовнішнього каталогу користувачів
type IdentityConfig struct {
	BaseURL      string `hcl:"base_url,optional"`
	ProjectID    string `hcl:"project_id,optional"`
	APIKey       string `hcl:"api_key,optional"`
	EmulatorHost string `hcl:"emulator_host,optional"`
	Timeout      string `hcl:"timeout,optional"`
}

// SecurityConfig містить налаштування безпеки
type SecurityConfig struct {
	CORS CORSConfig `hcl:"cors,block"`
}

// CORSConfig містить налаштування CORS
type CORSConfig struct {
	AllowedOrigins   []string `hcl:"allowed_origins"`
	AllowedMethods   []string `hcl:"allowed_methods,optional"`
	AllowedHeaders   []string `hcl:"allowed_headers,optional"`
	AllowCredentials bool     `hcl:"allow_credentials,optional"`
	MaxAge           int      `hcl:"max_age,optional"`
}

// RedisConfig містить налаштування Redis
type RedisConfig struct {
	Enabled    bool   `hcl:"enabled"`
	Host       string `hcl:"host,optional"`
	Port       int    `hcl:"port,optional"`
	Password   string `hcl:"password,optional"`
	Database   int    `hcl:"database,optional"`
	MaxRetries int    `hcl:"max_retries,optional"`
	PoolSize   int    `hcl:"pool_size,optional"`
}

// MetricsConfig містить налаштування Prometheus
type MetricsConfig struct {
	Enabled bool   `hcl:"enabled"`
	Path    string `hcl:"path,optional"`
}

const (
	defaultSessionMaxAge    = 5 * 24 * time.Hour
	defaultStateTTL         = 10 * time.Minute
	defaultIssuer           = "go-starter"
	defaultCallbackBaseURL  = "http://localhost:8080"
	providerCallbackPattern = "%s/api/auth/callback/%s"
)

// evalContext містить функції, доступні в HCL файлі
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": EnvFunction,
		},
	}
}

// LoadConfig завантажує конфігурацію з HCL файлу
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var config Config
	if err := hclsimple.DecodeFile(configPath, evalContext(), &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate перевіряє валідність конфігурації
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required")
	}
	if c.IsProduction() && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 characters in production")
	}

	seen := make(map[string]bool)
	for _, p := range c.Auth.Providers {
		if p.Name == "" || p.Name == models.CredentialsProvider {
			return fmt.Errorf("invalid provider name: %q", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider: %s", p.Name)
		}
		seen[p.Name] = true

		// Провайдер без credentials вимкнений, але половина пари це помилка
		if (p.ClientID == "") != (p.ClientSecret == "") {
			return fmt.Errorf("provider %s: client_id and client_secret must be set together", p.Name)
		}
		if p.Type != "" && p.Type != string(models.AccountTypeOAuth) && p.Type != string(models.AccountTypeOIDC) {
			return fmt.Errorf("provider %s: type must be oauth or oidc", p.Name)
		}
		if p.Name != "google" && p.Name != "github" && (p.AuthURL == "" || p.TokenURL == "" || p.UserInfoURL == "") {
			return fmt.Errorf("provider %s: auth_url, token_url and userinfo_url are required", p.Name)
		}
	}

	if c.Redis != nil && c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}

	return nil
}

// GetAddress повертає адресу для прослуховування сервера
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseDSN повертає DSN для підключення до бази даних
func (c *Config) GetDatabaseDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}

// IsDevelopment перевіряє чи додаток працює в режимі розробки
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development" || c.Server.Environment == "local"
}

// IsProduction перевіряє чи додаток працює в продакшн режимі
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// SessionMaxAge строк дії сесійного credential (за замовчуванням 5 днів)
func (c *Config) SessionMaxAge() time.Duration {
	return parseDuration(c.Auth.SessionMaxAge, defaultSessionMaxAge, "auth.session_max_age")
}

// RefreshThreshold час до закінчення, після якого credential перевидається
func (c *Config) RefreshThreshold() time.Duration {
	return parseDuration(c.Auth.RefreshThreshold, services.DefaultRefreshThreshold, "auth.refresh_threshold")
}

// StateTTL строк дії OAuth state
func (c *Config) StateTTL() time.Duration {
	return parseDuration(c.Auth.StateTTL, defaultStateTTL, "auth.state_ttl")
}

// Issuer повертає issuer сесійного JWT
func (c *Config) Issuer() string {
	if c.Auth.Issuer == "" {
		return defaultIssuer
	}
	return c.Auth.Issuer
}

// CookieOptions повертає параметри сесійної cookie
func (c *Config) CookieOptions() middleware.CookieOptions {
	opts := middleware.CookieOptions{
		Name:   middleware.SessionCookieName,
		Secure: c.IsProduction(),
		MaxAge: c.SessionMaxAge(),
	}
	if cookies := c.Auth.Cookies; cookies != nil {
		if cookies.SessionName != "" {
			opts.Name = cookies.SessionName
		}
		if cookies.Secure != nil {
			opts.Secure = *cookies.Secure
		}
	}
	return opts
}

// GateConfig повертає налаштування route gate.
// Test bypass за замовчуванням увімкнений поза production.
func (c *Config) GateConfig() middleware.GateConfig {
	gate := middleware.DefaultGateConfig()
	gate.SessionCookie = c.CookieOptions().Name
	gate.BypassEnabled = !c.IsProduction()

	if routes := c.Auth.Routes; routes != nil {
		if len(routes.PublicPaths) > 0 {
			gate.PublicPaths = routes.PublicPaths
		}
		if routes.LoginPath != "" {
			gate.LoginPath = routes.LoginPath
		}
		if routes.DashboardPath != "" {
			gate.DashboardPath = routes.DashboardPath
		}
		if routes.AuthPrefix != "" {
			gate.AuthPrefix = routes.AuthPrefix
		}
		if routes.LogSampleRate > 0 {
			gate.LogSampleRate = routes.LogSampleRate
		}
	}

	if cookies := c.Auth.Cookies; cookies != nil {
		if cookies.TestBypass != nil {
			gate.BypassEnabled = *cookies.TestBypass
		}
		if cookies.BypassName != "" {
			gate.BypassCookie = cookies.BypassName
		}
		if cookies.BypassSessionName != "" {
			gate.BypassSessionCookie = cookies.BypassSessionName
		}
		if cookies.BypassQueryParam != "" {
			gate.BypassQueryParam = cookies.BypassQueryParam
		}
	}

	return gate
}

// ProviderOptions повертає налаштування провайдерів для OAuthProviderService
func (c *Config) ProviderOptions() []services.ProviderOptions {
	base := strings.TrimRight(c.Auth.CallbackBaseURL, "/")
	if base == "" {
		base = defaultCallbackBaseURL
	}

	options := make([]services.ProviderOptions, 0, len(c.Auth.Providers))
	for _, p := range c.Auth.Providers {
		options = append(options, services.ProviderOptions{
			Name:         p.Name,
			DisplayName:  p.DisplayName,
			Type:         models.AccountType(p.Type),
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			AuthURL:      p.AuthURL,
			TokenURL:     p.TokenURL,
			UserInfoURL:  p.UserInfoURL,
			RedirectURL:  fmt.Sprintf(providerCallbackPattern, base, p.Name),
			Scopes:       p.Scopes,
		})
	}
	return options
}

// IdentityOptions повертає налаштування каталогу користувачів.
// Змінна IDENTITY_EMULATOR_HOST має пріоритет над файлом.
func (c *Config) IdentityOptions() services.IdentityOptions {
	var opts services.IdentityOptions
	if id := c.Identity; id != nil {
		opts = services.IdentityOptions{
			BaseURL:      id.BaseURL,
			ProjectID:    id.ProjectID,
			APIKey:       id.APIKey,
			EmulatorHost: id.EmulatorHost,
			Timeout:      parseDuration(id.Timeout, 10*time.Second, "identity.timeout"),
		}
	}
	if host := os.Getenv("IDENTITY_EMULATOR_HOST"); host != "" {
		opts.EmulatorHost = host
	}
	return opts
}

// RedisEnabled перевіряє чи треба використовувати Redis
func (c *Config) RedisEnabled() bool {
	return c.Redis != nil && c.Redis.Enabled
}

// RedisAddr повертає адресу Redis
func (c *Config) RedisAddr() string {
	port := c.Redis.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, port)
}

// MetricsPath повертає шлях endpoint метрик або "" якщо метрики вимкнені
func (c *Config) MetricsPath() string {
	if c.Metrics == nil {
		return "/metrics"
	}
	if !c.Metrics.Enabled {
		return ""
	}
	if c.Metrics.Path == "" {
		return "/metrics"
	}
	return c.Metrics.Path
}

// GenerateConfigFromTemplate генерує HCL конфігурацію з шаблону використовуючи змінні
func GenerateConfigFromTemplate(templatePath, outputPath string, vars map[string]interface{}) error {
	return generateConfigWithVars(templatePath, outputPath, vars)
}
