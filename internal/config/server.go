package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-starter/internal/handlers"
	"go-starter/internal/middleware"
	"go-starter/internal/models"
	"go-starter/internal/services"
	"go-starter/migrations"

	_ "go-starter/docs"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const serviceName = "go-starter"

// StartServer запускає HTTP сервер з конфігурацією
func StartServer(cfg *Config) error {
	setupLogging(cfg)

	db, err := connectToDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	appCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg))

	if err := setupRoutes(appCtx, r, cfg, db); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      r,
		ReadTimeout:  parseDuration(cfg.Server.ReadTimeout, 30*time.Second, "server.read_timeout"),
		WriteTimeout: parseDuration(cfg.Server.WriteTimeout, 30*time.Second, "server.write_timeout"),
		IdleTimeout:  parseDuration(cfg.Server.IdleTimeout, 120*time.Second, "server.idle_timeout"),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.WithFields(logrus.Fields{
			"address":     cfg.GetAddress(),
			"environment": cfg.Server.Environment,
			"log_level":   cfg.Server.LogLevel,
		}).Info("🚀 Starting server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	logrus.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logrus.Info("✅ Server exited gracefully")
	return nil
}

// setupLogging налаштовує логування
func setupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Server.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// corsMiddleware налаштовує CORS middleware
func corsMiddleware(cfg *Config) gin.HandlerFunc {
	cors := cfg.Security.CORS
	methods := strings.Join(cors.AllowedMethods, ", ")
	headers := strings.Join(cors.AllowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if isAllowedOrigin(origin, cors.AllowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		if methods != "" {
			c.Header("Access-Control-Allow-Methods", methods)
		}
		if headers != "" {
			c.Header("Access-Control-Allow-Headers", headers)
		}
		if cors.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if cors.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", fmt.Sprintf("%d", cors.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// buildStateStore повертає Redis сховище state, якщо Redis увімкнений
func buildStateStore(ctx context.Context, cfg *Config) (services.StateStore, error) {
	if !cfg.RedisEnabled() {
		return services.NewMemoryStateStore(ctx, cfg.StateTTL()), nil
	}

	client, err := services.NewRedisClient(
		ctx,
		cfg.RedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.Database,
		cfg.Redis.MaxRetries,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logrus.WithField("addr", cfg.RedisAddr()).Info("OAuth state stored in Redis")
	return services.NewRedisStateStore(client, cfg.StateTTL()), nil
}

// setupRoutes ініціалізує сервіси та реєструє маршрути.
// Фонові задачі сервісів зупиняються разом з ctx.
func setupRoutes(ctx context.Context, r *gin.Engine, cfg *Config, db *gorm.DB) error {
	userService := services.NewUserService(db)

	jwtService := services.NewJWTService(
		cfg.Auth.Secret,
		cfg.Issuer(),
		cfg.SessionMaxAge(),
		services.NewRevocationList(ctx),
	)

	identity := services.InitIdentityService(cfg.IdentityOptions())
	callbacks := services.NewJWTCallbacks(services.NewSignInHandler(), services.NewUpdateHandler(), identity)
	providers := services.NewOAuthProviderService(cfg.ProviderOptions())

	states, err := buildStateStore(ctx, cfg)
	if err != nil {
		return err
	}

	gate := cfg.GateConfig()
	authService := services.NewAuthService(userService, jwtService, callbacks, providers, states, services.AuthOptions{
		RefreshThreshold:   cfg.RefreshThreshold(),
		DefaultCallbackURL: gate.DashboardPath,
	})

	cookies := cfg.CookieOptions()
	authHandler := handlers.NewAuthHandler(authService, cookies, gate.LoginPath)
	apiHandler := handlers.NewAPIHandler(userService, authService, cookies)
	pageHandler := handlers.NewPageHandler()

	var pinger handlers.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	healthHandler := handlers.NewHealthHandler(serviceName, pinger)

	// Gate працює на кожному запиті; сесія нормалізується лише там, де її читають
	r.Use(middleware.RouteGate(gate, jwtService))
	withSession := middleware.LoadSession(authService, cookies)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if path := cfg.MetricsPath(); path != "" {
		r.GET(path, middleware.MetricsHandler())
	}
	r.GET("/api/health", healthHandler.Health)

	auth := r.Group("/api/auth")
	{
		auth.GET("/providers", authHandler.Providers)
		auth.GET("/session", withSession, authHandler.Session)
		auth.POST("/session", withSession, authHandler.UpdateSession)
		auth.DELETE("/session", authHandler.SignOut)
		auth.POST("/signout", authHandler.SignOut)
		auth.POST("/register", authHandler.Register)
		auth.GET("/signin/:provider", authHandler.SignIn)
		auth.POST("/callback/credentials", authHandler.CredentialsCallback)
		auth.GET("/callback/:provider", authHandler.OAuthCallback)
	}

	user := r.Group("/api/user")
	user.Use(withSession, middleware.RequireSession())
	{
		user.GET("/profile", apiHandler.UserProfile)
		user.PUT("/profile", apiHandler.UpdateProfile)
	}

	admin := r.Group("/api/admin")
	admin.Use(withSession, middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", apiHandler.AdminUsers)
		admin.DELETE("/users/:id", apiHandler.AdminDeleteUser)
	}

	pages := map[string]string{
		"/":                "home",
		"/login":           "login",
		"/register":        "register",
		"/forgot-password": "forgot-password",
		"/dashboard":       "dashboard",
		"/profile":         "profile",
		"/settings":        "settings",
	}
	for path, name := range pages {
		r.GET(path, withSession, pageHandler.Page(name))
	}

	return nil
}

// openDatabase відкриває GORM з'єднання з PostgreSQL
func openDatabase(cfg *Config) (*gorm.DB, error) {
	logrus.Infof("🔌 Connecting to PostgreSQL database: %s@%s:%d/%s",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	}
	if cfg.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// connectToDatabase підключається до бази та налаштовує connection pool
func connectToDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxLifetime := parseDuration(cfg.Database.ConnectionMaxLifetime, 5*time.Minute, "database.connection_max_lifetime")
	if cfg.Database.MaxOpenConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConnections)
	}
	if cfg.Database.MaxIdleConnections > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	}
	sqlDB.SetConnMaxLifetime(maxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Infof("📊 Database connection pool configured: MaxOpen=%d, MaxIdle=%d, MaxLifetime=%v",
		cfg.Database.MaxOpenConnections, cfg.Database.MaxIdleConnections, maxLifetime)
	return db, nil
}

// RunMigrations виконує тільки міграції без запуску сервера
func RunMigrations(cfg *Config) error {
	return withMigrationDB(cfg, func(db *gorm.DB) error {
		if err := migrations.Run(db); err != nil {
			return err
		}
		logrus.Info("✅ Database migrations completed successfully")
		return nil
	})
}

// RollbackMigration відкочує останню застосовану міграцію
func RollbackMigration(cfg *Config) error {
	return withMigrationDB(cfg, migrations.Rollback)
}

func withMigrationDB(cfg *Config, fn func(db *gorm.DB) error) error {
	setupLogging(cfg)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return fn(db)
}
