package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-starter/internal/build"
	"go-starter/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// OAuthProviderService інтерфейс для роботи з зовнішніми OAuth/OIDC провайдерами
type OAuthProviderService interface {
	AuthCodeURL(provider, state string) (string, error)
	Exchange(ctx context.Context, provider, code string) (*models.OAuthAccount, error)
	FetchProfile(ctx context.Context, provider string, account *models.OAuthAccount) (*models.OAuthProfile, error)
	Providers() []ProviderOptions
}

// ProviderOptions налаштування одного провайдера
type ProviderOptions struct {
	Name         string
	DisplayName  string
	Type         models.AccountType
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

type providerEntry struct {
	options ProviderOptions
	config  *oauth2.Config
}

// oauthProviderService реалізація OAuthProviderService
type oauthProviderService struct {
	providers map[string]*providerEntry
	timeout   time.Duration
}

// NewOAuthProviderService створює сервіс; провайдери без client id/secret пропускаються
func NewOAuthProviderService(providers []ProviderOptions) OAuthProviderService {
	s := &oauthProviderService{
		providers: make(map[string]*providerEntry),
		timeout:   30 * time.Second,
	}

	for _, p := range providers {
		if p.ClientID == "" || p.ClientSecret == "" {
			logrus.WithField("provider", p.Name).Warn("Provider has no client credentials, skipping")
			continue
		}
		p = withProviderDefaults(p)

		s.providers[p.Name] = &providerEntry{
			options: p,
			config: &oauth2.Config{
				ClientID:     p.ClientID,
				ClientSecret: p.ClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  p.AuthURL,
					TokenURL: p.TokenURL,
				},
				RedirectURL: p.RedirectURL,
				Scopes:      p.Scopes,
			},
		}
		logrus.WithFields(logrus.Fields{
			"provider": p.Name,
			"type":     p.Type,
		}).Info("OAuth provider configured")
	}

	return s
}

// withProviderDefaults заповнює endpoints та scopes для відомих провайдерів
func withProviderDefaults(p ProviderOptions) ProviderOptions {
	switch p.Name {
	case "google":
		if p.AuthURL == "" {
			p.AuthURL = google.Endpoint.AuthURL
		}
		if p.TokenURL == "" {
			p.TokenURL = google.Endpoint.TokenURL
		}
		if p.UserInfoURL == "" {
			p.UserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
		}
		if len(p.Scopes) == 0 {
			p.Scopes = []string{"openid", "email", "profile"}
		}
		if p.Type == "" {
			p.Type = models.AccountTypeOIDC
		}
	case "github":
		if p.AuthURL == "" {
			p.AuthURL = github.Endpoint.AuthURL
		}
		if p.TokenURL == "" {
			p.TokenURL = github.Endpoint.TokenURL
		}
		if p.UserInfoURL == "" {
			p.UserInfoURL = "https://api.github.com/user"
		}
		if len(p.Scopes) == 0 {
			p.Scopes = []string{"read:user", "user:email"}
		}
		if p.DisplayName == "" {
			p.DisplayName = "GitHub"
		}
	}
	if p.Type == "" {
		p.Type = models.AccountTypeOAuth
	}
	if p.DisplayName == "" && p.Name != "" {
		p.DisplayName = strings.ToUpper(p.Name[:1]) + p.Name[1:]
	}
	return p
}

func (s *oauthProviderService) entry(provider string) (*providerEntry, error) {
	e, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return e, nil
}

// AuthCodeURL повертає URL авторизації провайдера
func (s *oauthProviderService) AuthCodeURL(provider, state string) (string, error) {
	e, err := s.entry(provider)
	if err != nil {
		return "", err
	}
	return e.config.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange обмінює authorization code на токени провайдера
func (s *oauthProviderService) Exchange(ctx context.Context, provider, code string) (*models.OAuthAccount, error) {
	e, err := s.entry(provider)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, err := e.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	account := &models.OAuthAccount{
		ProviderName: provider,
		AccountType:  e.options.Type,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		account.IDToken = idToken
	}
	if scope, ok := token.Extra("scope").(string); ok {
		account.Scope = scope
	}

	logrus.WithField("provider", provider).Debug("Authorization code exchanged")
	return account, nil
}

// FetchProfile отримує профіль з userinfo endpoint.
// Підтримує OIDC (sub, picture) та GitHub (id, avatar_url, login) формати.
func (s *oauthProviderService) FetchProfile(ctx context.Context, provider string, account *models.OAuthAccount) (*models.OAuthProfile, error) {
	e, err := s.entry(provider)
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: account.AccessToken,
		TokenType:   account.TokenType,
	}))

	resp, err := resty.NewWithClient(httpClient).
		SetTimeout(s.timeout).
		R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", build.UserAgent()).
		Get(e.options.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode())
	}

	body := gjson.ParseBytes(resp.Body())
	profile := &models.OAuthProfile{
		Subject:       firstString(body, "sub", "id"),
		Email:         body.Get("email").String(),
		EmailVerified: body.Get("email_verified").Bool() || body.Get("verified_email").Bool(),
		Name:          firstString(body, "name", "login"),
		Picture:       firstString(body, "picture", "avatar_url"),
	}
	if profile.Subject == "" {
		return nil, fmt.Errorf("userinfo response has no subject")
	}

	account.ProviderAccountID = profile.Subject
	return profile, nil
}

// Providers повертає налаштовані провайдери, відсортовані за ім'ям
func (s *oauthProviderService) Providers() []ProviderOptions {
	list := make([]ProviderOptions, 0, len(s.providers))
	for _, e := range s.providers {
		list = append(list, e.options)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func firstString(body gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := body.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
