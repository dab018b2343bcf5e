package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-starter/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// userService реалізація UserService
type userService struct {
	db *gorm.DB
}

// NewUserService створює новий UserService
func NewUserService(db *gorm.DB) UserService {
	return &userService{
		db: db,
	}
}

// GetUserByID отримує активного користувача за ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail отримує активного користувача за email
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", normalizeEmail(email), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// RegisterUser реєструє нового користувача з роллю USER
func (s *userService) RegisterUser(ctx context.Context, req models.RegisterRequest) (*User, error) {
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := User{
		ID:           generateUserID(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hashedPassword),
		Role:         string(models.RoleUser),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithField("user_id", user.ID).Info("User registered")
	return &user, nil
}

// ValidatePassword перевіряє пароль; для невідомого email теж ErrInvalidCredentials
func (s *userService) ValidatePassword(ctx context.Context, email, password string) (*User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// UpdateProfile змінює ім'я користувача
func (s *userService) UpdateProfile(ctx context.Context, id, name string) (*User, error) {
	result := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"name":       strings.TrimSpace(name),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetUserByID(ctx, id)
}

// ListUsers повертає всіх активних користувачів
func (s *userService) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser деактивує користувача (soft delete)
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreateOrUpdateFromOAuth знаходить користувача за прив'язаним акаунтом або email,
// інакше створює нового, і прив'язує акаунт провайдера.
// До існуючого користувача акаунт прив'язується лише за підтвердженим email,
// інакше повертається ErrAccountNotLinked.
func (s *userService) CreateOrUpdateFromOAuth(ctx context.Context, provider string, profile models.OAuthProfile) (*User, error) {
	if profile.Subject == "" {
		return nil, fmt.Errorf("provider profile has no subject")
	}

	log := logrus.WithFields(logrus.Fields{
		"provider": provider,
		"sub":      profile.Subject,
	})

	var user User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link LinkedAccount
		err := tx.Where("provider = ? AND provider_account_id = ?", provider, profile.Subject).First(&link).Error
		switch {
		case err == nil:
			if err := tx.Where("id = ? AND is_active = ?", link.UserID, true).First(&user).Error; err != nil {
				return fmt.Errorf("failed to load linked user: %w", err)
			}
			return refreshFromProfile(tx, &user, profile)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to find linked account: %w", err)
		}

		email := normalizeEmail(profile.Email)
		err = tx.Where("email = ? AND is_active = ?", email, true).First(&user).Error
		switch {
		case err == nil:
			if !profile.EmailVerified {
				log.WithField("user_id", user.ID).Warn("Provider email not verified, refusing to link existing account")
				return ErrAccountNotLinked
			}
			if err := refreshFromProfile(tx, &user, profile); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if email == "" {
				return fmt.Errorf("provider profile has no email")
			}
			now := time.Now()
			user = User{
				ID:        generateUserID(),
				Email:     email,
				Name:      profile.Name,
				Picture:   profile.Picture,
				Role:      string(models.RoleUser),
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user from provider: %w", err)
			}
			log.WithField("user_id", user.ID).Info("User created from provider profile")
		default:
			return fmt.Errorf("failed to find user by email: %w", err)
		}

		link = LinkedAccount{
			UserID:            user.ID,
			Provider:          provider,
			ProviderAccountID: profile.Subject,
		}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to link account: %w", err)
		}
		log.WithField("user_id", user.ID).Info("Provider account linked")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// refreshFromProfile оновлює ім'я та фото, якщо провайдер їх надав
func refreshFromProfile(tx *gorm.DB, user *User, profile models.OAuthProfile) error {
	updates := map[string]interface{}{}
	if profile.Name != "" && profile.Name != user.Name {
		updates["name"] = profile.Name
		user.Name = profile.Name
	}
	if profile.Picture != "" && profile.Picture != user.Picture {
		updates["picture"] = profile.Picture
		user.Picture = profile.Picture
	}
	if len(updates) == 0 {
		return nil
	}

	updates["updated_at"] = time.Now()
	if err := tx.Model(&User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update user from provider: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateUserID генерує унікальний ID для користувача
func generateUserID() string {
	return "usr_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
