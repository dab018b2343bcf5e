package handlers

import (
	"context"

	"go-starter/internal/models"
	"go-starter/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockAuthService реалізація services.AuthService для тестів
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignInWithCredentials(ctx context.Context, req *models.LoginRequest) (*services.SessionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionResult), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*services.SessionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionResult), args.Error(1)
}

func (m *MockAuthService) BeginOAuth(ctx context.Context, provider, callbackURL string) (string, error) {
	args := m.Called(ctx, provider, callbackURL)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) CompleteOAuth(ctx context.Context, provider, code, state string) (*services.SessionResult, error) {
	args := m.Called(ctx, provider, code, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionResult), args.Error(1)
}

func (m *MockAuthService) CurrentSession(ctx context.Context, raw string) (*services.SessionResult, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionResult), args.Error(1)
}

func (m *MockAuthService) UpdateSession(ctx context.Context, current *models.Token, patch models.SessionPatch) (*services.SessionResult, error) {
	args := m.Called(ctx, current, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionResult), args.Error(1)
}

func (m *MockAuthService) IssueCredential(ctx context.Context, token *models.Token) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, raw string) {
	m.Called(ctx, raw)
}

func (m *MockAuthService) Providers() []models.ProviderInfo {
	args := m.Called()
	return args.Get(0).([]models.ProviderInfo)
}

// MockUserService реалізація services.UserService для тестів
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*services.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.User), args.Error(1)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*services.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.User), args.Error(1)
}

func (m *MockUserService) RegisterUser(ctx context.Context, req models.RegisterRequest) (*services.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.User), args.Error(1)
}

func (m *MockUserService) ValidatePassword(ctx context.Context, email, password string) (*services.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id, name string) (*services.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]services.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) CreateOrUpdateFromOAuth(ctx context.Context, provider string, profile models.OAuthProfile) (*services.User, error) {
	args := m.Called(ctx, provider, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.User), args.Error(1)
}
