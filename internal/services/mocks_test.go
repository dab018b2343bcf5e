package services

import (
	"context"

	"go-starter/internal/models"
)

type mockIdentityService struct {
	ready      bool
	getFunc    func(ctx context.Context, id string) (*IdentityRecord, error)
	createFunc func(ctx context.Context, id string, attrs IdentityAttributes) (*IdentityRecord, error)
	updateFunc func(ctx context.Context, id string, attrs IdentityAttributes) (*IdentityRecord, error)

	created []IdentityAttributes
	updated []IdentityAttributes
}

func (m *mockIdentityService) IsInitialized() bool { return m.ready }

func (m *mockIdentityService) GetUser(ctx context.Context, id string) (*IdentityRecord, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, ErrIdentityUserNotFound
}

func (m *mockIdentityService) CreateUser(ctx context.Context, id string, attrs IdentityAttributes) (*IdentityRecord, error) {
	m.created = append(m.created, attrs)
	if m.createFunc != nil {
		return m.createFunc(ctx, id, attrs)
	}
	return &IdentityRecord{UID: id}, nil
}

func (m *mockIdentityService) UpdateUser(ctx context.Context, id string, attrs IdentityAttributes) (*IdentityRecord, error) {
	m.updated = append(m.updated, attrs)
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, attrs)
	}
	return &IdentityRecord{UID: id}, nil
}

type signInHandlerFunc func(ctx context.Context, params SignInParams) (*models.Token, error)

func (f signInHandlerFunc) HandleSignIn(ctx context.Context, params SignInParams) (*models.Token, error) {
	return f(ctx, params)
}

type updateHandlerFunc func(ctx context.Context, token *models.Token, patch models.SessionPatch) (*models.Token, error)

func (f updateHandlerFunc) HandleUpdate(ctx context.Context, token *models.Token, patch models.SessionPatch) (*models.Token, error) {
	return f(ctx, token, patch)
}

type mockUserService struct {
	users map[string]*User

	registerFunc func(ctx context.Context, req models.RegisterRequest) (*User, error)
	validateFunc func(ctx context.Context, email, password string) (*User, error)
	oauthFunc    func(ctx context.Context, provider string, profile models.OAuthProfile) (*User, error)
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockUserService) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserService) RegisterUser(ctx context.Context, req models.RegisterRequest) (*User, error) {
	return m.registerFunc(ctx, req)
}

func (m *mockUserService) ValidatePassword(ctx context.Context, email, password string) (*User, error) {
	return m.validateFunc(ctx, email, password)
}

func (m *mockUserService) UpdateProfile(_ context.Context, id, name string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Name = name
	return u, nil
}

func (m *mockUserService) ListUsers(context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserService) DeleteUser(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserService) CreateOrUpdateFromOAuth(ctx context.Context, provider string, profile models.OAuthProfile) (*User, error) {
	return m.oauthFunc(ctx, provider, profile)
}

type mockOAuthProviders struct {
	options  []ProviderOptions
	exchange func(ctx context.Context, provider, code string) (*models.OAuthAccount, error)
	profile  func(ctx context.Context, provider string, account *models.OAuthAccount) (*models.OAuthProfile, error)
}

func (m *mockOAuthProviders) AuthCodeURL(provider, state string) (string, error) {
	for _, p := range m.options {
		if p.Name == provider {
			return "https://provider.example.com/authorize?state=" + state, nil
		}
	}
	return "", ErrUnknownProvider
}

func (m *mockOAuthProviders) Exchange(ctx context.Context, provider, code string) (*models.OAuthAccount, error) {
	return m.exchange(ctx, provider, code)
}

func (m *mockOAuthProviders) FetchProfile(ctx context.Context, provider string, account *models.OAuthAccount) (*models.OAuthProfile, error) {
	return m.profile(ctx, provider, account)
}

func (m *mockOAuthProviders) Providers() []ProviderOptions {
	return m.options
}
