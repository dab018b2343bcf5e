package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go-starter/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CredentialVerifier декодує та перевіряє сесійний credential
type CredentialVerifier interface {
	DecodeSessionToken(raw string) (*models.Token, error)
}

// GateConfig налаштування route gate
type GateConfig struct {
	PublicPaths   []string
	LoginPath     string
	DashboardPath string
	// AuthPrefix префікс власних маршрутів автентифікації
	AuthPrefix    string
	SessionCookie string

	BypassEnabled       bool
	BypassCookie        string
	BypassSessionCookie string
	BypassQueryParam    string

	// LogSampleRate логувати кожен N-й запит до статики та auth маршрутів
	LogSampleRate int
}

// DefaultGateConfig повертає стандартні налаштування
func DefaultGateConfig() GateConfig {
	return GateConfig{
		PublicPaths:         []string{"/", "/login", "/register", "/forgot-password", "/api/health", "/metrics", "/swagger"},
		LoginPath:           "/login",
		DashboardPath:       "/dashboard",
		AuthPrefix:          "/api/auth",
		SessionCookie:       SessionCookieName,
		BypassEnabled:       false,
		BypassCookie:        "bypass",
		BypassSessionCookie: "sessionId",
		BypassQueryParam:    "testSessionId",
		LogSampleRate:       100,
	}
}

func (cfg GateConfig) withDefaults() GateConfig {
	defaults := DefaultGateConfig()
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaults.LoginPath
	}
	if cfg.DashboardPath == "" {
		cfg.DashboardPath = defaults.DashboardPath
	}
	if cfg.AuthPrefix == "" {
		cfg.AuthPrefix = defaults.AuthPrefix
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = defaults.SessionCookie
	}
	if cfg.BypassCookie == "" {
		cfg.BypassCookie = defaults.BypassCookie
	}
	if cfg.BypassSessionCookie == "" {
		cfg.BypassSessionCookie = defaults.BypassSessionCookie
	}
	if cfg.BypassQueryParam == "" {
		cfg.BypassQueryParam = defaults.BypassQueryParam
	}
	if cfg.LogSampleRate <= 0 {
		cfg.LogSampleRate = 1
	}
	return cfg
}

const (
	decisionStatic            = "static"
	decisionBypass            = "bypass"
	decisionRedirectDashboard = "redirect_dashboard"
	decisionRedirectLogin     = "redirect_login"
	decisionAllow             = "allow"
)

type routeGate struct {
	cfg      GateConfig
	verifier CredentialVerifier
	sampled  atomic.Uint64
}

// RouteGate створює middleware, яке пропускає запит або перенаправляє
// на login/dashboard залежно від шляху та стану автентифікації
func RouteGate(cfg GateConfig, verifier CredentialVerifier) gin.HandlerFunc {
	gate := &routeGate{
		cfg:      cfg.withDefaults(),
		verifier: verifier,
	}

	return func(c *gin.Context) {
		start := time.Now()
		decision, location, authenticated := gate.decide(c)
		elapsed := time.Since(start)

		gateDecisionsTotal.WithLabelValues(decision).Inc()
		gateDuration.Observe(elapsed.Seconds())
		gate.log(c.Request.URL.Path, decision, authenticated, elapsed)

		if location != "" {
			c.Redirect(http.StatusTemporaryRedirect, location)
			c.Abort()
			return
		}
		c.Next()
	}
}

// decide повертає рішення, адресу перенаправлення (або "") та стан автентифікації
func (g *routeGate) decide(c *gin.Context) (string, string, bool) {
	path := c.Request.URL.Path

	if strings.HasPrefix(path, g.cfg.AuthPrefix) || strings.Contains(path, ".") {
		return decisionStatic, "", false
	}

	if g.bypassed(c) {
		return decisionBypass, "", false
	}

	public := g.isPublic(path)
	authenticated := g.authenticated(c)

	if authenticated && path == g.cfg.LoginPath {
		return decisionRedirectDashboard, g.cfg.DashboardPath, true
	}

	if !public && !authenticated {
		target := c.Request.URL.EscapedPath()
		if c.Request.URL.RawQuery != "" {
			target += "?" + c.Request.URL.RawQuery
		}
		location := g.cfg.LoginPath + "?" + url.Values{"callbackUrl": {target}}.Encode()
		return decisionRedirectLogin, location, false
	}

	return decisionAllow, "", authenticated
}

// bypassed: cookie bypass=true та cookie sessionId збігається з query параметром
func (g *routeGate) bypassed(c *gin.Context) bool {
	if !g.cfg.BypassEnabled {
		return false
	}

	flag, err := c.Cookie(g.cfg.BypassCookie)
	if err != nil || flag != "true" {
		return false
	}

	sessionID, err := c.Cookie(g.cfg.BypassSessionCookie)
	if err != nil || sessionID == "" {
		return false
	}

	return sessionID == c.Query(g.cfg.BypassQueryParam)
}

// isPublic: точний збіг або префікс по сегментах шляху
func (g *routeGate) isPublic(path string) bool {
	for _, p := range g.cfg.PublicPaths {
		if path == p {
			return true
		}
		if p != "/" && strings.HasPrefix(path, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}
	return false
}

// authenticated: будь-яка помилка перевірки означає неавтентифікований запит
func (g *routeGate) authenticated(c *gin.Context) bool {
	if g.verifier == nil {
		return false
	}

	raw, err := c.Cookie(g.cfg.SessionCookie)
	if err != nil || raw == "" {
		return false
	}

	_, err = g.verifier.DecodeSessionToken(raw)
	return err == nil
}

func (g *routeGate) log(path, decision string, authenticated bool, elapsed time.Duration) {
	if decision == decisionStatic {
		n := g.sampled.Add(1)
		if (n-1)%uint64(g.cfg.LogSampleRate) != 0 {
			return
		}
	}

	logrus.WithFields(logrus.Fields{
		"duration":      elapsed.String(),
		"path":          path,
		"authenticated": authenticated,
		"decision":      decision,
	}).Debug("Route gate")
}
