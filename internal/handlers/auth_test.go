package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go-starter/internal/middleware"
	"go-starter/internal/models"
	"go-starter/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCookies = middleware.CookieOptions{MaxAge: time.Hour}

func sessionResult(credential, callbackURL string) *services.SessionResult {
	return &services.SessionResult{
		Session: models.Session{
			User: models.SessionUser{
				ID:    "usr_1",
				Name:  models.StringPtr("Ada"),
				Email: models.StringPtr("ada@example.com"),
				Role:  models.RoleUser,
			},
			Expires: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Token:       &models.Token{Provider: models.CredentialsProvider},
		Credential:  credential,
		CallbackURL: callbackURL,
	}
}

// loadedToken відповідає токену, який LoadSession кладе в контекст з sessionResult
var loadedToken = mock.MatchedBy(func(token *models.Token) bool {
	return token != nil && token.Provider == models.CredentialsProvider
})

func newAuthRouter(authService *MockAuthService) *gin.Engine {
	h := NewAuthHandler(authService, testCookies, "")

	r := gin.New()
	r.Use(middleware.LoadSession(authService, testCookies))

	auth := r.Group("/api/auth")
	auth.GET("/providers", h.Providers)
	auth.GET("/session", h.Session)
	auth.POST("/session", h.UpdateSession)
	auth.DELETE("/session", h.SignOut)
	auth.POST("/signout", h.SignOut)
	auth.POST("/register", h.Register)
	auth.GET("/signin/:provider", h.SignIn)
	auth.POST("/callback/credentials", h.CredentialsCallback)
	auth.GET("/callback/:provider", h.OAuthCallback)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withSessionCookie(req *http.Request, value string) *http.Request {
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: value})
	return req
}

func TestAuthHandler_CredentialsCallback(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("SignInWithCredentials", mock.Anything, mock.MatchedBy(func(req *models.LoginRequest) bool {
		return req.Email == "ada@example.com" && req.CallbackURL == "/settings"
	})).Return(sessionResult("signed", "/settings"), nil)

	w := serve(newAuthRouter(authService), jsonRequest(http.MethodPost, "/api/auth/callback/credentials",
		`{"email":"ada@example.com","password":"correct-horse","callbackUrl":"/settings"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/settings", gjson.Get(w.Body.String(), "redirect").String())
	assert.Equal(t, "usr_1", gjson.Get(w.Body.String(), "session.user.id").String())
	assert.Equal(t, "USER", gjson.Get(w.Body.String(), "session.user.role").String())
	assert.Equal(t, gjson.Null, gjson.Get(w.Body.String(), "session.user.image").Type)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=signed")
	authService.AssertExpectations(t)
}

func TestAuthHandler_CredentialsCallback_Form(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("SignInWithCredentials", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
		Return(sessionResult("signed", "/dashboard"), nil)

	form := url.Values{"email": {"ada@example.com"}, "password": {"correct-horse"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/credentials", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := serve(newAuthRouter(authService), req)

	assert.Equal(t, http.StatusOK, w.Code)
	authService.AssertExpectations(t)
}

func TestAuthHandler_CredentialsCallback_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		status      int
		code        string
		description string
	}{
		{
			name:        "missing password",
			body:        `{"email":"ada@example.com"}`,
			status:      http.StatusBadRequest,
			code:        "invalid_request",
			description: "Missing or invalid email/password",
		},
		{
			name:        "wrong password",
			body:        `{"email":"ada@example.com","password":"nope"}`,
			err:         services.ErrInvalidCredentials,
			status:      http.StatusUnauthorized,
			code:        "invalid_grant",
			description: "The password is invalid for the given email.",
		},
		{
			name:        "unexpected failure",
			body:        `{"email":"ada@example.com","password":"nope"}`,
			err:         assert.AnError,
			status:      http.StatusInternalServerError,
			code:        "server_error",
			description: "An unexpected authentication error occurred. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService := new(MockAuthService)
			if tt.err != nil {
				authService.On("SignInWithCredentials", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			w := serve(newAuthRouter(authService), jsonRequest(http.MethodPost, "/api/auth/callback/credentials", tt.body))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, gjson.Get(w.Body.String(), "error").String())
			assert.Equal(t, tt.description, gjson.Get(w.Body.String(), "error_description").String())
			assert.Empty(t, w.Header().Get("Set-Cookie"))
		})
	}
}

func TestAuthHandler_Register(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("Register", mock.Anything, mock.MatchedBy(func(req *models.RegisterRequest) bool {
		return req.Email == "new@example.com"
	})).Return(sessionResult("signed", "/dashboard"), nil)
	authService.On("Register", mock.Anything, mock.MatchedBy(func(req *models.RegisterRequest) bool {
		return req.Email == "ada@example.com"
	})).Return(nil, services.ErrUserExists)

	r := newAuthRouter(authService)

	w := serve(r, jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"new@example.com","name":"Newbie","password":"secret123"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=signed")

	w = serve(r, jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"ada@example.com","name":"Ada","password":"secret123"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "An account already exists with this email address.", gjson.Get(w.Body.String(), "error_description").String())

	w = serve(r, jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"short@example.com","name":"A","password":"secret123"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_SignIn(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("BeginOAuth", mock.Anything, "google", "/settings").
		Return("https://accounts.example.com/auth?state=s1", nil)
	authService.On("BeginOAuth", mock.Anything, "myspace", "").
		Return("", services.ErrUnknownProvider)

	r := newAuthRouter(authService)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/auth/signin/google?callbackUrl=%2Fsettings", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://accounts.example.com/auth?state=s1", w.Header().Get("Location"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/auth/signin/myspace", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_provider", gjson.Get(w.Body.String(), "error").String())
}

func TestAuthHandler_OAuthCallback(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		setup    func(m *MockAuthService)
		location string
		cookie   string
	}{
		{
			name:     "provider error",
			target:   "/api/auth/callback/google?error=access_denied",
			location: "/login?error=OAuthSignin",
		},
		{
			name:     "missing state",
			target:   "/api/auth/callback/google?code=c1",
			location: "/login?error=OAuthCallback",
		},
		{
			name:   "invalid state",
			target: "/api/auth/callback/google?code=c1&state=bad",
			setup: func(m *MockAuthService) {
				m.On("CompleteOAuth", mock.Anything, "google", "c1", "bad").Return(nil, services.ErrInvalidState)
			},
			location: "/login?error=OAuthCallback",
		},
		{
			name:   "email owned by another account",
			target: "/api/auth/callback/github?code=c1&state=s1",
			setup: func(m *MockAuthService) {
				m.On("CompleteOAuth", mock.Anything, "github", "c1", "s1").Return(nil, services.ErrAccountNotLinked)
			},
			location: "/login?error=OAuthAccountNotLinked",
		},
		{
			name:   "success",
			target: "/api/auth/callback/google?code=c1&state=s1",
			setup: func(m *MockAuthService) {
				m.On("CompleteOAuth", mock.Anything, "google", "c1", "s1").Return(sessionResult("signed", "/profile"), nil)
			},
			location: "/profile",
			cookie:   "session=signed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService := new(MockAuthService)
			if tt.setup != nil {
				tt.setup(authService)
			}

			w := serve(newAuthRouter(authService), httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
			if tt.cookie != "" {
				assert.Contains(t, w.Header().Get("Set-Cookie"), tt.cookie)
			} else {
				assert.Empty(t, w.Header().Get("Set-Cookie"))
			}
			authService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Session(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("CurrentSession", mock.Anything, "signed").Return(sessionResult("", ""), nil)
	authService.On("CurrentSession", mock.Anything, "tampered").Return(nil, services.ErrInvalidSessionToken)

	r := newAuthRouter(authService)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, withSessionCookie(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), "tampered"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, withSessionCookie(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), "signed"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"user": {"id": "usr_1", "name": "Ada", "email": "ada@example.com", "image": null, "role": "USER"},
		"expires": "2030-01-01T00:00:00Z"
	}`, w.Body.String())
}

func TestAuthHandler_UpdateSession(t *testing.T) {
	patch := models.SessionPatch{User: models.SessionPatchUser{Name: models.StringPtr("Ada Lovelace")}}

	authService := new(MockAuthService)
	authService.On("CurrentSession", mock.Anything, "signed").Return(sessionResult("", ""), nil)
	authService.On("UpdateSession", mock.Anything, loadedToken, patch).Return(sessionResult("updated", ""), nil)

	r := newAuthRouter(authService)

	req := withSessionCookie(jsonRequest(http.MethodPost, "/api/auth/session", `{"user":{"name":"Ada Lovelace"}}`), "signed")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=updated")

	w = serve(r, jsonRequest(http.MethodPost, "/api/auth/session", `{"user":{"name":"Ada Lovelace"}}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, jsonRequest(http.MethodPost, "/api/auth/session", `not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	authService.AssertNumberOfCalls(t, "UpdateSession", 1)
}

func TestAuthHandler_UpdateSession_Expired(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("CurrentSession", mock.Anything, "signed").Return(sessionResult("", ""), nil)
	authService.On("UpdateSession", mock.Anything, loadedToken, mock.Anything).Return(nil, services.ErrInvalidSessionToken)

	req := withSessionCookie(jsonRequest(http.MethodPost, "/api/auth/session", `{"user":{"name":"Ada Lovelace"}}`), "signed")
	w := serve(newAuthRouter(authService), req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No active session", gjson.Get(w.Body.String(), "error_description").String())
}

func TestAuthHandler_SignOut(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			authService := new(MockAuthService)
			authService.On("CurrentSession", mock.Anything, "signed").Return(sessionResult("", ""), nil)
			authService.On("SignOut", mock.Anything, "signed").Return()

			target := "/api/auth/signout"
			if method == http.MethodDelete {
				target = "/api/auth/session"
			}

			w := serve(newAuthRouter(authService), withSessionCookie(httptest.NewRequest(method, target, nil), "signed"))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
			assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
			authService.AssertCalled(t, "SignOut", mock.Anything, "signed")
		})
	}
}

func TestAuthHandler_Providers(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("Providers").Return([]models.ProviderInfo{
		{ID: "credentials", Name: "Credentials", Type: "credentials", SignInURL: "/api/auth/callback/credentials"},
		{ID: "google", Name: "Google", Type: "oidc", SignInURL: "/api/auth/signin/google"},
	})

	w := serve(newAuthRouter(authService), httptest.NewRequest(http.MethodGet, "/api/auth/providers", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "#").Int())
	assert.Equal(t, "/api/auth/signin/google", gjson.Get(w.Body.String(), "1.signinUrl").String())
}
