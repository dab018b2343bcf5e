package services

import (
	"context"
	"errors"
	"testing"

	"go-starter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCorrelationID = "00000000-0000-4000-8000-000000000001"

func newTestCallbacks(signIn SignInHandler, update UpdateHandler, identity IdentityService) *JWTCallbacks {
	callbacks := NewJWTCallbacks(signIn, update, identity)
	callbacks.newID = func() string { return testCorrelationID }
	return callbacks
}

func googleAccount() *models.OAuthAccount {
	return &models.OAuthAccount{
		ProviderName:      "google",
		AccountType:       models.AccountTypeOIDC,
		ProviderAccountID: "google-sub-1",
	}
}

func testAuthUser() *models.AuthUser {
	return &models.AuthUser{
		ID:    "usr_1",
		Email: "ada@example.com",
		Name:  "Ada",
		Image: "ada.png",
		Role:  models.RoleUser,
	}
}

func TestJWTCallbacks_SignInDelegates(t *testing.T) {
	var got SignInParams
	signIn := signInHandlerFunc(func(_ context.Context, params SignInParams) (*models.Token, error) {
		got = params
		token := &models.Token{}
		token.Subject = params.User.ID
		return token, nil
	})
	callbacks := newTestCallbacks(signIn, nil, nil)

	profile := &models.OAuthProfile{Subject: "google-sub-1", Name: "Ada L."}
	token, err := callbacks.Handle(context.Background(), JWTCallbackParams{
		Token:   &models.Token{},
		User:    testAuthUser(),
		Account: &models.CredentialsAccount{},
		Profile: profile,
		Trigger: TriggerSignIn,
	})
	require.NoError(t, err)

	assert.Equal(t, "usr_1", token.Subject)
	assert.Equal(t, testCorrelationID, got.CorrelationID)
	assert.Equal(t, TriggerSignIn, got.Trigger)
	assert.Same(t, profile, got.Profile)
	assert.Equal(t, models.CredentialsProvider, got.Account.Provider())
}

func TestJWTCallbacks_SignUpDelegates(t *testing.T) {
	called := false
	signIn := signInHandlerFunc(func(_ context.Context, params SignInParams) (*models.Token, error) {
		called = true
		assert.Equal(t, TriggerSignUp, params.Trigger)
		return &models.Token{}, nil
	})

	_, err := newTestCallbacks(signIn, nil, nil).Handle(context.Background(), JWTCallbackParams{
		Token:   &models.Token{},
		User:    testAuthUser(),
		Account: &models.CredentialsAccount{},
		Trigger: TriggerSignUp,
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestJWTCallbacks_SignInErrorPropagates(t *testing.T) {
	delegateErr := errors.New("delegate failed")
	signIn := signInHandlerFunc(func(context.Context, SignInParams) (*models.Token, error) {
		return nil, delegateErr
	})
	identity := &mockIdentityService{ready: true}

	token, err := newTestCallbacks(signIn, nil, identity).Handle(context.Background(), JWTCallbackParams{
		Token:   &models.Token{},
		User:    testAuthUser(),
		Account: googleAccount(),
		Trigger: TriggerSignIn,
	})

	assert.Nil(t, token)
	assert.Same(t, delegateErr, err)
	assert.Empty(t, identity.created, "identity must not be touched when the delegate fails")
}

func TestJWTCallbacks_SignInWithoutAccountPassesThrough(t *testing.T) {
	signIn := signInHandlerFunc(func(context.Context, SignInParams) (*models.Token, error) {
		t.Fatal("delegate must not be called")
		return nil, nil
	})

	input := &models.Token{Name: models.StringPtr("Ada")}
	token, err := newTestCallbacks(signIn, nil, nil).Handle(context.Background(), JWTCallbackParams{
		Token:   input,
		User:    testAuthUser(),
		Trigger: TriggerSignIn,
	})

	require.NoError(t, err)
	assert.Equal(t, "Ada", *token.Name)
	assert.Equal(t, testCorrelationID, token.ID)
}

func TestJWTCallbacks_IdentitySync(t *testing.T) {
	tests := []struct {
		name        string
		ready       bool
		record      *IdentityRecord
		getErr      error
		profile     *models.OAuthProfile
		wantCreated int
		wantUpdated int
	}{
		{
			name:  "not initialized skips",
			ready: false,
		},
		{
			name:        "missing user is created",
			ready:       true,
			getErr:      ErrIdentityUserNotFound,
			wantCreated: 1,
		},
		{
			name:   "linked and unchanged is left alone",
			ready:  true,
			record: &IdentityRecord{UID: "usr_1", DisplayName: "Ada", PhotoURL: "ada.png", ProviderIDs: []string{"google"}},
		},
		{
			name:        "provider not linked is updated",
			ready:       true,
			record:      &IdentityRecord{UID: "usr_1", DisplayName: "Ada", PhotoURL: "ada.png", ProviderIDs: []string{"password"}},
			wantUpdated: 1,
		},
		{
			name:        "profile name differs is updated",
			ready:       true,
			record:      &IdentityRecord{UID: "usr_1", DisplayName: "Ada", PhotoURL: "ada.png", ProviderIDs: []string{"google"}},
			profile:     &models.OAuthProfile{Subject: "google-sub-1", Name: "Ada Lovelace"},
			wantUpdated: 1,
		},
		{
			name:   "lookup failure is swallowed",
			ready:  true,
			getErr: errors.New("directory unavailable"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := &mockIdentityService{
				ready: tt.ready,
				getFunc: func(context.Context, string) (*IdentityRecord, error) {
					return tt.record, tt.getErr
				},
			}

			token, err := newTestCallbacks(nil, nil, identity).Handle(context.Background(), JWTCallbackParams{
				Token:   &models.Token{},
				User:    testAuthUser(),
				Account: googleAccount(),
				Profile: tt.profile,
				Trigger: TriggerSignIn,
			})

			require.NoError(t, err)
			assert.Equal(t, "usr_1", token.Subject)
			assert.Len(t, identity.created, tt.wantCreated)
			assert.Len(t, identity.updated, tt.wantUpdated)
		})
	}
}

func TestJWTCallbacks_IdentityCreateAttributes(t *testing.T) {
	identity := &mockIdentityService{ready: true}

	_, err := newTestCallbacks(nil, nil, identity).Handle(context.Background(), JWTCallbackParams{
		Token:   &models.Token{},
		User:    testAuthUser(),
		Account: googleAccount(),
		Profile: &models.OAuthProfile{
			Subject:       "google-sub-1",
			Email:         "ada@gmail.com",
			EmailVerified: true,
			Picture:       "https://lh3.example.com/ada.png",
		},
		Trigger: TriggerSignIn,
	})
	require.NoError(t, err)

	require.Len(t, identity.created, 1)
	attrs := identity.created[0]
	assert.Equal(t, "ada@gmail.com", attrs.Email)
	assert.True(t, attrs.EmailVerified)
	assert.Equal(t, "Ada", attrs.DisplayName)
	assert.Equal(t, "https://lh3.example.com/ada.png", attrs.PhotoURL)
	assert.Equal(t, "google", attrs.ProviderID)
}

func TestJWTCallbacks_IdentityCreateFailureIsSwallowed(t *testing.T) {
	identity := &mockIdentityService{
		ready: true,
		createFunc: func(context.Context, string, IdentityAttributes) (*IdentityRecord, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	token, err := newTestCallbacks(nil, nil, identity).Handle(context.Background(), JWTCallbackParams{
		Token:   &models.Token{},
		User:    testAuthUser(),
		Account: googleAccount(),
		Trigger: TriggerSignIn,
	})

	require.NoError(t, err)
	assert.Equal(t, "usr_1", token.Subject)
}

func TestJWTCallbacks_CredentialsSkipIdentity(t *testing.T) {
	identity := &mockIdentityService{
		ready: true,
		getFunc: func(context.Context, string) (*IdentityRecord, error) {
			t.Fatal("credentials sign-in must not reach the identity service")
			return nil, nil
		},
	}

	_, err := newTestCallbacks(nil, nil, identity).Handle(context.Background(), JWTCallbackParams{
		Token:   &models.Token{},
		User:    testAuthUser(),
		Account: &models.CredentialsAccount{},
		Trigger: TriggerSignIn,
	})
	require.NoError(t, err)
}

func TestJWTCallbacks_Update(t *testing.T) {
	var gotPatch models.SessionPatch
	update := updateHandlerFunc(func(_ context.Context, token *models.Token, patch models.SessionPatch) (*models.Token, error) {
		gotPatch = patch
		out := token.Clone()
		out.Name = patch.User.Name
		return out, nil
	})
	callbacks := newTestCallbacks(nil, update, nil)

	input := &models.Token{Name: models.StringPtr("Old")}
	patch := &models.SessionPatch{User: models.SessionPatchUser{Name: models.StringPtr("New")}}

	token, err := callbacks.Handle(context.Background(), JWTCallbackParams{
		Token:   input,
		Trigger: TriggerUpdate,
		Session: patch,
	})
	require.NoError(t, err)

	assert.Equal(t, "New", *token.Name)
	assert.Equal(t, "New", *gotPatch.User.Name)
	assert.Equal(t, "Old", *input.Name)
}

func TestJWTCallbacks_UpdateWithoutPatchPassesThrough(t *testing.T) {
	update := updateHandlerFunc(func(context.Context, *models.Token, models.SessionPatch) (*models.Token, error) {
		t.Fatal("update delegate must not be called without a patch")
		return nil, nil
	})

	input := &models.Token{Name: models.StringPtr("Ada")}
	input.ID = "existing-jti"

	token, err := newTestCallbacks(nil, update, nil).Handle(context.Background(), JWTCallbackParams{
		Token:   input,
		Trigger: TriggerUpdate,
	})

	require.NoError(t, err)
	assert.Equal(t, "existing-jti", token.ID)
	assert.Equal(t, "Ada", *token.Name)
}

func TestJWTCallbacks_SessionTriggerAssignsJTI(t *testing.T) {
	input := &models.Token{Role: models.RoleAdmin}
	input.Subject = "usr_1"

	token, err := newTestCallbacks(nil, nil, nil).Handle(context.Background(), JWTCallbackParams{
		Token:   input,
		Trigger: TriggerSession,
	})

	require.NoError(t, err)
	assert.Equal(t, testCorrelationID, token.ID)
	assert.Equal(t, "usr_1", token.Subject)
	assert.Equal(t, models.RoleAdmin, token.Role)
	assert.Empty(t, input.ID, "input token must not be modified")
}

func TestJWTCallbacks_FreshCorrelationIDPerCall(t *testing.T) {
	callbacks := NewJWTCallbacks(nil, nil, nil)

	first, err := callbacks.Handle(context.Background(), JWTCallbackParams{Token: &models.Token{}, Trigger: TriggerSession})
	require.NoError(t, err)
	second, err := callbacks.Handle(context.Background(), JWTCallbackParams{Token: &models.Token{}, Trigger: TriggerSession})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
}
