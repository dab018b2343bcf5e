package services

import (
	"context"
	"time"

	"go-starter/internal/models"

	"github.com/sirupsen/logrus"
)

// signInHandler стандартний делегат входу
type signInHandler struct{}

// NewSignInHandler створює делегат, який переносить дані користувача та профілю в токен
func NewSignInHandler() SignInHandler {
	return &signInHandler{}
}

func (h *signInHandler) HandleSignIn(_ context.Context, params SignInParams) (*models.Token, error) {
	token := params.Token.Clone()
	user := params.User

	token.Subject = user.ID
	token.Role = models.ParseRole(string(user.Role))
	token.Name = models.StringPtr(user.Name)
	token.Email = models.StringPtr(user.Email)
	token.Picture = models.StringPtr(user.Image)

	if profile := params.Profile; profile != nil {
		if profile.Name != "" {
			token.Name = models.StringPtr(profile.Name)
		}
		if profile.Email != "" {
			token.Email = models.StringPtr(profile.Email)
		}
		if profile.Picture != "" {
			token.Picture = models.StringPtr(profile.Picture)
		}
	}

	token.Provider = params.Account.Provider()
	token.ID = params.CorrelationID
	token.Error = ""

	logrus.WithFields(logrus.Fields{
		"user_id":        token.Subject,
		"provider":       token.Provider,
		"correlation_id": params.CorrelationID,
	}).Info("User signed in")

	return token, nil
}

// updateHandler стандартний делегат оновлення сесії
type updateHandler struct{}

// NewUpdateHandler створює делегат, що дозволяє змінювати лише name та image
func NewUpdateHandler() UpdateHandler {
	return &updateHandler{}
}

func (h *updateHandler) HandleUpdate(_ context.Context, token *models.Token, patch models.SessionPatch) (*models.Token, error) {
	updated := token.Clone()

	if patch.User.Name != nil {
		updated.Name = models.StringPtr(*patch.User.Name)
	}
	if patch.User.Image != nil {
		updated.Picture = models.StringPtr(*patch.User.Image)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       updated.Subject,
		"name_changed":  patch.User.Name != nil,
		"image_changed": patch.User.Image != nil,
	}).Debug("Session token updated")

	return updated, nil
}

// DefaultRefreshThreshold час до закінчення токена, після якого він перевидається
const DefaultRefreshThreshold = 5 * time.Minute

// ShouldRefreshToken перевіряє чи токен закінчується протягом threshold
func ShouldRefreshToken(token *models.Token, now time.Time, threshold time.Duration) bool {
	if token == nil || token.ExpiresAt == nil {
		return false
	}
	return token.ExpiresAt.Time.Sub(now) <= threshold
}
