// Package auth issues and verifies the access tokens used by the admin and
// account endpoints.
package auth

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/localhq/localservices/pkg/errors"
)

const defaultAccessTokenTTL = 12 * time.Hour

// Claims carried inside an access token.
type Claims struct {
	UserID  string `json:"uid"`
	IsAdmin bool   `json:"adm"`
	jwt.RegisteredClaims
}

// JWTService signs and parses access tokens with an HMAC secret.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService builds a token service. The secret must be non-empty; the
// configuration loader enforces that outside debug mode.
func NewJWTService(secret, issuer string, ttl time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, stderrors.New("auth: signing secret is required")
	}
	if issuer == "" {
		issuer = "localservices"
	}
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}

	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// GenerateToken issues a signed access token for the user.
func (s *JWTService) GenerateToken(userID string, isAdmin bool) (string, error) {
	now := s.now()

	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies a token and returns its claims.
func (s *JWTService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, stderrors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, errors.ErrUnauthorized.WithInternal(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.ErrUnauthorized
	}
	return claims, nil
}

// TokenTTL reports the configured token lifetime.
func (s *JWTService) TokenTTL() time.Duration {
	return s.ttl
}
