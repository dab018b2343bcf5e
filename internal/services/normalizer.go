package services

import (
	"go-starter/internal/models"

	"github.com/sirupsen/logrus"
)

// NormalizeSession будує нову сесію з токена поверх переданої оболонки.
// Оболонка не змінюється. Функція ніколи не повертає помилку:
// відсутні поля токена деградують до значень оболонки або null.
func NormalizeSession(token *models.Token, shell models.Session) models.Session {
	if token == nil {
		token = &models.Token{}
	}

	logrus.WithFields(logrus.Fields{
		"has_token_sub": token.HasSubject(),
	}).Trace("Session normalization start")

	session := models.Session{
		User: models.SessionUser{
			ID:    token.Subject,
			Name:  resolveClaim(token.Name, shell.User.Name),
			Email: resolveClaim(token.Email, shell.User.Email),
			Image: resolveClaim(token.Picture, shell.User.Image),
			Role:  models.ParseRole(string(token.Role)),
		},
		Expires: shell.Expires,
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   session.User.ID,
		"user_role": session.User.Role,
	}).Trace("Session normalization end")

	return session
}

// resolveClaim: відсутнє поле -> значення оболонки, пусте -> null
func resolveClaim(claim, fallback *string) *string {
	if claim == nil {
		if fallback == nil {
			return nil
		}
		return models.StringPtr(*fallback)
	}
	if *claim == "" {
		return nil
	}
	return models.StringPtr(*claim)
}
