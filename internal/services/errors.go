package services

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserExists             = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidSessionToken    = errors.New("invalid session token")
	ErrInvalidState           = errors.New("invalid state parameter")
	ErrUnknownProvider        = errors.New("unknown or unconfigured provider")
	ErrIdentityUserNotFound   = errors.New("identity service: user not found")
	ErrIdentityNotInitialized = errors.New("identity service is not initialized")
	ErrAccountNotLinked       = errors.New("account exists but is not linked to this provider")
)

// authErrorMessages зіставляє коди помилок провайдера з повідомленнями для користувача
var authErrorMessages = map[string]string{
	"auth/invalid-email":                            "The email address is not valid.",
	"auth/wrong-password":                           "The password is invalid for the given email.",
	"auth/user-not-found":                           "No user found with this email address.",
	"auth/email-already-in-use":                     "An account already exists with this email address.",
	"auth/weak-password":                            "The password must be at least 6 characters long.",
	"auth/account-exists-with-different-credential": "An account already exists with the same email but different sign-in credentials.",
	"auth/network-request-failed":                   "A network error occurred. Please check your connection and try again.",
	"auth/too-many-requests":                        "Too many failed login attempts. Please try again later or reset your password.",
	"auth/expired-action-code":                      "The action code has expired. Please request a new one.",
	"auth/unauthorized-domain":                      "This domain is not authorized for OAuth operations. Please contact support.",
}

const genericAuthErrorMessage = "An unexpected authentication error occurred. Please try again."

// AuthErrorCode повертає код помилки провайдера для відомих помилок сервісу
func AuthErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "auth/wrong-password"
	case errors.Is(err, ErrUserNotFound):
		return "auth/user-not-found"
	case errors.Is(err, ErrUserExists):
		return "auth/email-already-in-use"
	case errors.Is(err, ErrUnknownProvider):
		return "auth/unauthorized-domain"
	case errors.Is(err, ErrAccountNotLinked):
		return "auth/account-exists-with-different-credential"
	}
	return ""
}

// AuthErrorMessage повертає зрозуміле повідомлення для коду помилки
func AuthErrorMessage(code string) string {
	if msg, ok := authErrorMessages[code]; ok {
		return msg
	}
	if strings.HasPrefix(code, "auth/") {
		return "Authentication error: " + strings.TrimPrefix(code, "auth/")
	}
	return genericAuthErrorMessage
}
