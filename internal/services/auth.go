package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-starter/internal/models"

	"github.com/sirupsen/logrus"
)

// AuthOptions налаштування AuthService
type AuthOptions struct {
	RefreshThreshold   time.Duration
	DefaultCallbackURL string
	SignInPath         string
	CredentialsPath    string
}

// authService реалізація AuthService
type authService struct {
	users     UserService
	jwt       JWTService
	callbacks *JWTCallbacks
	providers OAuthProviderService
	states    StateStore
	opts      AuthOptions
	now       func() time.Time
}

// NewAuthService створює новий AuthService
func NewAuthService(users UserService, jwtService JWTService, callbacks *JWTCallbacks, providers OAuthProviderService, states StateStore, opts AuthOptions) AuthService {
	if opts.RefreshThreshold <= 0 {
		opts.RefreshThreshold = DefaultRefreshThreshold
	}
	if opts.DefaultCallbackURL == "" {
		opts.DefaultCallbackURL = "/dashboard"
	}
	if opts.SignInPath == "" {
		opts.SignInPath = "/api/auth/signin"
	}
	if opts.CredentialsPath == "" {
		opts.CredentialsPath = "/api/auth/callback/credentials"
	}

	return &authService{
		users:     users,
		jwt:       jwtService,
		callbacks: callbacks,
		providers: providers,
		states:    states,
		opts:      opts,
		now:       time.Now,
	}
}

// SignInWithCredentials виконує вхід через email/password
func (s *authService) SignInWithCredentials(ctx context.Context, req *models.LoginRequest) (*SessionResult, error) {
	user, err := s.users.ValidatePassword(ctx, req.Email, req.Password)
	if err != nil {
		logrus.WithError(err).Warn("Credentials sign-in failed")
		return nil, err
	}

	token, err := s.callbacks.Handle(ctx, JWTCallbackParams{
		Token:   &models.Token{},
		User:    user.AuthUser(),
		Account: &models.CredentialsAccount{},
		Trigger: TriggerSignIn,
	})
	if err != nil {
		return nil, fmt.Errorf("sign-in callback failed: %w", err)
	}

	result, err := s.issue(ctx, token)
	if err != nil {
		return nil, err
	}
	result.CallbackURL = s.safeCallbackURL(req.CallbackURL)
	return result, nil
}

// Register створює користувача та одразу видає сесію
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*SessionResult, error) {
	user, err := s.users.RegisterUser(ctx, *req)
	if err != nil {
		logrus.WithError(err).WithField("email", req.Email).Warn("Registration failed")
		return nil, err
	}

	token, err := s.callbacks.Handle(ctx, JWTCallbackParams{
		Token:   &models.Token{},
		User:    user.AuthUser(),
		Account: &models.CredentialsAccount{},
		Trigger: TriggerSignUp,
	})
	if err != nil {
		return nil, fmt.Errorf("sign-up callback failed: %w", err)
	}

	result, err := s.issue(ctx, token)
	if err != nil {
		return nil, err
	}
	result.CallbackURL = s.opts.DefaultCallbackURL
	return result, nil
}

// BeginOAuth створює state і повертає URL авторизації провайдера
func (s *authService) BeginOAuth(ctx context.Context, provider, callbackURL string) (string, error) {
	if !s.hasProvider(provider) {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	state, err := s.states.Generate(ctx, OAuthState{
		Provider:    provider,
		CallbackURL: s.safeCallbackURL(callbackURL),
	})
	if err != nil {
		return "", err
	}

	return s.providers.AuthCodeURL(provider, state)
}

// CompleteOAuth обробляє callback провайдера і видає сесію
func (s *authService) CompleteOAuth(ctx context.Context, provider, code, state string) (*SessionResult, error) {
	data, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if data.Provider != provider {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	account, err := s.providers.Exchange(ctx, provider, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.providers.FetchProfile(ctx, provider, account)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateOrUpdateFromOAuth(ctx, provider, *profile)
	if err != nil {
		return nil, err
	}

	authUser := user.AuthUser()
	if profile.EmailVerified {
		verifiedAt := s.now()
		authUser.EmailVerified = &verifiedAt
	}

	token, err := s.callbacks.Handle(ctx, JWTCallbackParams{
		Token:   &models.Token{},
		User:    authUser,
		Account: account,
		Profile: profile,
		Trigger: TriggerSignIn,
	})
	if err != nil {
		return nil, fmt.Errorf("sign-in callback failed: %w", err)
	}

	result, err := s.issue(ctx, token)
	if err != nil {
		return nil, err
	}
	result.CallbackURL = data.CallbackURL
	return result, nil
}

// CurrentSession перевіряє credential і повертає нормалізовану сесію.
// Якщо credential скоро закінчується, видається новий.
func (s *authService) CurrentSession(ctx context.Context, raw string) (*SessionResult, error) {
	decoded, err := s.jwt.DecodeSessionToken(raw)
	if err != nil {
		return nil, err
	}

	token, err := s.callbacks.Handle(ctx, JWTCallbackParams{
		Token:   decoded,
		Trigger: TriggerSession,
	})
	if err != nil {
		return nil, err
	}

	if ShouldRefreshToken(token, s.now(), s.opts.RefreshThreshold) {
		logrus.WithField("user_id", token.Subject).Debug("Session token close to expiry, refreshing")
		return s.issue(ctx, token)
	}

	return &SessionResult{
		Session: NormalizeSession(token, sessionShell(token)),
		Token:   token,
	}, nil
}

// UpdateSession застосовує patch до вже завантаженого токена і видає новий credential.
// Токен з контексту запиту не змінюється.
func (s *authService) UpdateSession(ctx context.Context, current *models.Token, patch models.SessionPatch) (*SessionResult, error) {
	if current == nil {
		return nil, ErrInvalidSessionToken
	}

	token, err := s.callbacks.Handle(ctx, JWTCallbackParams{
		Token:   current.Clone(),
		Trigger: TriggerUpdate,
		Session: &patch,
	})
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, token)
}

// IssueCredential підписує токен у сесійний credential
func (s *authService) IssueCredential(_ context.Context, token *models.Token) (string, error) {
	return s.jwt.EncodeSessionToken(token)
}

// SignOut відкликає поточний credential; невалідний credential ігнорується
func (s *authService) SignOut(_ context.Context, raw string) {
	token, err := s.jwt.DecodeSessionToken(raw)
	if err != nil {
		return
	}
	s.jwt.Revoke(token)
	logrus.WithField("user_id", token.Subject).Info("User signed out")
}

// Providers повертає доступні способи входу
func (s *authService) Providers() []models.ProviderInfo {
	list := []models.ProviderInfo{{
		ID:        models.CredentialsProvider,
		Name:      "Credentials",
		Type:      string(models.AccountTypeCredentials),
		SignInURL: s.opts.CredentialsPath,
	}}
	for _, p := range s.providers.Providers() {
		list = append(list, models.ProviderInfo{
			ID:        p.Name,
			Name:      p.DisplayName,
			Type:      string(p.Type),
			SignInURL: strings.TrimRight(s.opts.SignInPath, "/") + "/" + p.Name,
		})
	}
	return list
}

// issue підписує токен і будує сесію з підписаних claims
func (s *authService) issue(ctx context.Context, token *models.Token) (*SessionResult, error) {
	credential, err := s.IssueCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	signed, err := s.jwt.DecodeSessionToken(credential)
	if err != nil {
		return nil, fmt.Errorf("failed to read issued credential: %w", err)
	}

	return &SessionResult{
		Session:    NormalizeSession(signed, sessionShell(signed)),
		Token:      signed,
		Credential: credential,
	}, nil
}

func (s *authService) hasProvider(name string) bool {
	for _, p := range s.providers.Providers() {
		if p.Name == name {
			return true
		}
	}
	return false
}

// safeCallbackURL приймає лише відносні шляхи цього ж сайту
func (s *authService) safeCallbackURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return s.opts.DefaultCallbackURL
	}
	return raw
}

func sessionShell(token *models.Token) models.Session {
	var expires time.Time
	if token != nil && token.ExpiresAt != nil {
		expires = token.ExpiresAt.Time
	}
	return models.NewSessionShell(expires)
}
