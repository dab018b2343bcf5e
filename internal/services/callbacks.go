package services

import (
	"context"
	"errors"

	"go-starter/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Trigger подія, на яку викликається JWT callback
type Trigger string

const (
	TriggerSignIn  Trigger = "signIn"
	TriggerSignUp  Trigger = "signUp"
	TriggerUpdate  Trigger = "update"
	TriggerSession Trigger = "session"
)

// JWTCallbackParams вхідні дані JWT callback
type JWTCallbackParams struct {
	Token   *models.Token
	User    *models.AuthUser
	Account models.Account
	Profile *models.OAuthProfile
	Trigger Trigger
	Session *models.SessionPatch
}

// SignInParams дані, які отримує делегат входу
type SignInParams struct {
	Token         *models.Token
	User          *models.AuthUser
	Account       models.Account
	Profile       *models.OAuthProfile
	Trigger       Trigger
	CorrelationID string
}

// SignInHandler збагачує токен після входу
type SignInHandler interface {
	HandleSignIn(ctx context.Context, params SignInParams) (*models.Token, error)
}

// UpdateHandler застосовує оновлення сесії до токена
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, token *models.Token, patch models.SessionPatch) (*models.Token, error)
}

// JWTCallbacks маршрутизує події автентифікації до делегатів
type JWTCallbacks struct {
	signIn   SignInHandler
	update   UpdateHandler
	identity IdentityService
	newID    func() string
}

// NewJWTCallbacks створює JWTCallbacks. nil делегати замінюються стандартними,
// identity може бути nil.
func NewJWTCallbacks(signIn SignInHandler, update UpdateHandler, identity IdentityService) *JWTCallbacks {
	if signIn == nil {
		signIn = NewSignInHandler()
	}
	if update == nil {
		update = NewUpdateHandler()
	}
	return &JWTCallbacks{
		signIn:   signIn,
		update:   update,
		identity: identity,
		newID:    uuid.NewString,
	}
}

// Handle обробляє одну подію. Помилки делегатів повертаються без змін,
// помилки синхронізації з каталогом лише логуються.
func (c *JWTCallbacks) Handle(ctx context.Context, params JWTCallbackParams) (*models.Token, error) {
	correlationID := c.newID()
	log := logrus.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"trigger":        params.Trigger,
	})

	switch {
	case (params.Trigger == TriggerSignIn || params.Trigger == TriggerSignUp) &&
		params.User != nil && params.Account != nil:
		log.WithField("provider", params.Account.Provider()).Debug("JWT callback: sign-in")

		token, err := c.signIn.HandleSignIn(ctx, SignInParams{
			Token:         params.Token,
			User:          params.User,
			Account:       params.Account,
			Profile:       params.Profile,
			Trigger:       params.Trigger,
			CorrelationID: correlationID,
		})
		if err != nil {
			return nil, err
		}

		if account, ok := params.Account.(*models.OAuthAccount); ok {
			c.syncIdentity(ctx, log, params.User, account, params.Profile)
		}
		return token, nil

	case params.Trigger == TriggerUpdate && params.Session != nil:
		log.Debug("JWT callback: session update")
		return c.update.HandleUpdate(ctx, params.Token, *params.Session)
	}

	token := params.Token.Clone()
	if token.ID == "" {
		token.ID = correlationID
	}
	return token, nil
}

// syncIdentity створює або оновлює запис користувача в каталозі
func (c *JWTCallbacks) syncIdentity(ctx context.Context, log *logrus.Entry, user *models.AuthUser, account *models.OAuthAccount, profile *models.OAuthProfile) {
	if c.identity == nil || !c.identity.IsInitialized() {
		log.Debug("Identity service not initialized, skipping synchronization")
		return
	}

	log = log.WithField("user_id", user.ID)
	attrs := identityAttributes(user, account, profile)

	record, err := c.identity.GetUser(ctx, user.ID)
	if errors.Is(err, ErrIdentityUserNotFound) {
		if _, err := c.identity.CreateUser(ctx, user.ID, attrs); err != nil {
			log.WithError(err).Warn("Failed to create identity user")
		}
		return
	}
	if err != nil {
		log.WithError(err).Warn("Failed to get identity user")
		return
	}

	if !identityNeedsUpdate(record, attrs) {
		return
	}
	if _, err := c.identity.UpdateUser(ctx, user.ID, attrs); err != nil {
		log.WithError(err).Warn("Failed to update identity user")
	}
}

func identityAttributes(user *models.AuthUser, account *models.OAuthAccount, profile *models.OAuthProfile) IdentityAttributes {
	attrs := IdentityAttributes{
		Email:         user.Email,
		EmailVerified: user.EmailVerified != nil,
		DisplayName:   user.Name,
		PhotoURL:      user.Image,
		ProviderID:    account.Provider(),
	}
	if profile != nil {
		if profile.Email != "" {
			attrs.Email = profile.Email
			attrs.EmailVerified = profile.EmailVerified
		}
		if profile.Name != "" {
			attrs.DisplayName = profile.Name
		}
		if profile.Picture != "" {
			attrs.PhotoURL = profile.Picture
		}
	}
	return attrs
}

func identityNeedsUpdate(record *IdentityRecord, attrs IdentityAttributes) bool {
	if !record.HasProvider(attrs.ProviderID) {
		return true
	}
	if attrs.DisplayName != "" && record.DisplayName != attrs.DisplayName {
		return true
	}
	return attrs.PhotoURL != "" && record.PhotoURL != attrs.PhotoURL
}
