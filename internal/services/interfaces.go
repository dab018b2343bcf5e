package services

import (
	"context"
	"time"

	"go-starter/internal/models"
)

// AuthService інтерфейс для автентифікації та роботи з сесією
type AuthService interface {
	SignInWithCredentials(ctx context.Context, req *models.LoginRequest) (*SessionResult, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*SessionResult, error)
	BeginOAuth(ctx context.Context, provider, callbackURL string) (string, error)
	CompleteOAuth(ctx context.Context, provider, code, state string) (*SessionResult, error)
	CurrentSession(ctx context.Context, raw string) (*SessionResult, error)
	UpdateSession(ctx context.Context, current *models.Token, patch models.SessionPatch) (*SessionResult, error)
	IssueCredential(ctx context.Context, token *models.Token) (string, error)
	SignOut(ctx context.Context, raw string)
	Providers() []models.ProviderInfo
}

// SessionResult результат операції, що видає або перевіряє сесію.
// Credential заповнений, коли cookie потрібно встановити або оновити.
type SessionResult struct {
	Session     models.Session
	Token       *models.Token
	Credential  string
	CallbackURL string
}

// UserService інтерфейс для роботи з користувачами
type UserService interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	RegisterUser(ctx context.Context, req models.RegisterRequest) (*User, error)
	ValidatePassword(ctx context.Context, email, password string) (*User, error)
	UpdateProfile(ctx context.Context, id, name string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
	CreateOrUpdateFromOAuth(ctx context.Context, provider string, profile models.OAuthProfile) (*User, error)
}

// User представляє користувача в базі даних
type User struct {
	ID           string    `gorm:"primaryKey;size:255" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Picture      string    `gorm:"size:500" json:"picture,omitempty"`
	Role         string    `gorm:"size:16;not null;default:USER" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthUser перетворює запис у дані для sign-in callback
func (u *User) AuthUser() *models.AuthUser {
	return &models.AuthUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Image: u.Picture,
		Role:  models.ParseRole(u.Role),
	}
}

// Model повертає користувача у форматі API
func (u *User) Model() models.User {
	return models.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		Role:      models.ParseRole(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// LinkedAccount зв'язок користувача з федеративним акаунтом
type LinkedAccount struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"`
	UserID            string    `gorm:"size:255;not null;index"`
	Provider          string    `gorm:"size:64;not null"`
	ProviderAccountID string    `gorm:"size:255;not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName явно задає ім'я таблиці для GORM
func (LinkedAccount) TableName() string {
	return "linked_accounts"
}
