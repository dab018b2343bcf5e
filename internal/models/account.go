package models

import "time"

// AccountType визначає сімейство провайдера
type AccountType string

const (
	AccountTypeOAuth       AccountType = "oauth"
	AccountTypeOIDC        AccountType = "oidc"
	AccountTypeCredentials AccountType = "credentials"
)

// CredentialsProvider ім'я провайдера email/password
const CredentialsProvider = "credentials"

// Account представляє акаунт, через який користувач автентифікувався.
// Реалізації: *OAuthAccount та *CredentialsAccount.
type Account interface {
	Provider() string
	Type() AccountType
	isAccount()
}

// OAuthAccount акаунт федеративного провайдера (OAuth/OIDC)
type OAuthAccount struct {
	ProviderName      string
	AccountType       AccountType
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	IDToken           string
	TokenType         string
	ExpiresAt         time.Time
	Scope             string
}

func (a *OAuthAccount) Provider() string { return a.ProviderName }

func (a *OAuthAccount) Type() AccountType {
	if a.AccountType == "" {
		return AccountTypeOAuth
	}
	return a.AccountType
}

func (a *OAuthAccount) isAccount() {}

// CredentialsAccount акаунт email/password
type CredentialsAccount struct{}

func (a *CredentialsAccount) Provider() string  { return CredentialsProvider }
func (a *CredentialsAccount) Type() AccountType { return AccountTypeCredentials }
func (a *CredentialsAccount) isAccount()        {}

// IsFederated перевіряє чи акаунт належить OAuth/OIDC провайдеру
func IsFederated(account Account) bool {
	_, ok := account.(*OAuthAccount)
	return ok
}

// AuthUser представляє користувача, переданого у sign-in callback
type AuthUser struct {
	ID            string
	Email         string
	Name          string
	Image         string
	Role          Role
	EmailVerified *time.Time
}

// OAuthProfile представляє профіль від OAuth/OIDC провайдера
type OAuthProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
}
