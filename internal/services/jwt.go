package services

import (
	"fmt"
	"time"

	"go-starter/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// JWTService підписує та перевіряє сесійний JWT (HS256)
type JWTService interface {
	EncodeSessionToken(token *models.Token) (string, error)
	DecodeSessionToken(raw string) (*models.Token, error)
	Revoke(token *models.Token)
	MaxAge() time.Duration
}

// jwtService реалізація JWTService
type jwtService struct {
	secret []byte
	issuer string
	maxAge time.Duration
	now    func() time.Time

	revocations RevocationList
}

// NewJWTService створює новий JWT сервіс. revocations може бути nil.
func NewJWTService(secret, issuer string, maxAge time.Duration, revocations RevocationList) JWTService {
	return &jwtService{
		secret:      []byte(secret),
		issuer:      issuer,
		maxAge:      maxAge,
		now:         time.Now,
		revocations: revocations,
	}
}

// EncodeSessionToken підписує токен; iat/exp/jti виставляються заново
func (j *jwtService) EncodeSessionToken(token *models.Token) (string, error) {
	claims := token.Clone()
	now := j.now()

	claims.Issuer = j.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.maxAge))
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": claims.Subject,
		"jti":     claims.ID,
	}).Debug("Session token issued")

	return signed, nil
}

// DecodeSessionToken перевіряє підпис, issuer та строк дії
func (j *jwtService) DecodeSessionToken(raw string) (*models.Token, error) {
	if raw == "" {
		return nil, ErrInvalidSessionToken
	}

	claims := &models.Token{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidSessionToken
	}
	if j.revocations != nil && j.revocations.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidSessionToken)
	}

	return claims, nil
}

// Revoke робить токен недійсним до закінчення його строку дії
func (j *jwtService) Revoke(token *models.Token) {
	if j.revocations == nil || token == nil || token.ExpiresAt == nil {
		return
	}
	j.revocations.Revoke(token.ID, token.ExpiresAt.Time)
}

func (j *jwtService) MaxAge() time.Duration {
	return j.maxAge
}
