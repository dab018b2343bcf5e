package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role представляє роль користувача (закритий перелік)
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// IsValid перевіряє чи належить роль до переліку {ADMIN, USER}
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole повертає валідну роль; будь-яке інше значення стає USER
func ParseRole(value string) Role {
	role := Role(value)
	if role.IsValid() {
		return role
	}
	return RoleUser
}

// Token представляє claims сесійного JWT.
// Для name/email/picture nil означає що поле відсутнє,
// а вказівник на порожній рядок означає що поле присутнє але пусте.
type Token struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Picture  *string `json:"picture,omitempty"`
	Role     Role    `json:"role,omitempty"`
	Provider string  `json:"provider,omitempty"`
	Error    string  `json:"error,omitempty"`
	jwt.RegisteredClaims
}

// Clone повертає незалежну копію токена
func (t *Token) Clone() *Token {
	if t == nil {
		return &Token{}
	}
	clone := *t
	clone.Name = cloneString(t.Name)
	clone.Email = cloneString(t.Email)
	clone.Picture = cloneString(t.Picture)
	if t.Audience != nil {
		clone.Audience = append(jwt.ClaimStrings(nil), t.Audience...)
	}
	return &clone
}

// HasSubject перевіряє чи має токен subject id
func (t *Token) HasSubject() bool {
	return t != nil && t.Subject != ""
}

// SessionUser представляє користувача всередині сесії
type SessionUser struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Image *string `json:"image"`
	Role  Role    `json:"role"`
}

// Session представляє проєкцію токена для обробників запитів
type Session struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

// NewSessionShell створює сесію з дефолтним користувачем
func NewSessionShell(expires time.Time) Session {
	return Session{
		User:    SessionUser{Role: RoleUser},
		Expires: expires,
	}
}

// SessionPatch представляє оновлення сесії (trigger "update")
type SessionPatch struct {
	User SessionPatchUser `json:"user"`
}

// SessionPatchUser містить поля користувача, які дозволено змінювати
type SessionPatchUser struct {
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

// StringPtr повертає вказівник на рядок
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
