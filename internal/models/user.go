package models

import "time"

// User представляє користувача у відповідях API
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile представляє профіль користувача
type UserProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Role    Role   `json:"role"`
}

// UpdateProfileRequest представляє запит на зміну імені
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,min=2,max=50"`
}

// LoginRequest представляє запит на вхід через email/password
type LoginRequest struct {
	Email       string `json:"email" form:"email" binding:"required,email"`
	Password    string `json:"password" form:"password" binding:"required"`
	CallbackURL string `json:"callbackUrl,omitempty" form:"callbackUrl"`
}

// RegisterRequest представляє запит на реєстрацію
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Password string `json:"password" binding:"required,min=6"`
}

// AuthResponse відповідь на успішний вхід або реєстрацію
type AuthResponse struct {
	Session  Session `json:"session"`
	Redirect string  `json:"redirect,omitempty"`
}

// ProviderInfo описує налаштованого провайдера входу
type ProviderInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	SignInURL string `json:"signinUrl"`
}
