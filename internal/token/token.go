// Package token mints and verifies the signed session tokens carried in
// the access_token cookie.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quartierboard/board-api/internal/domain"
)

const (
	// Issuer and Audience are fixed claims every token must carry.
	Issuer   = "api-auth"
	Audience = "web-frontend"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload: the authenticated user's identity plus
// the registered claims.
type Claims struct {
	UserID         string `json:"userID"`
	Username       string `json:"username"`
	Mail           string `json:"mail"`
	IsEmailVisible bool   `json:"isEmailVisible"`
	jwt.RegisteredClaims
}

// Service signs and parses tokens with a shared HMAC secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// NewToken mints a token for the given user.
func (s *Service) NewToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         user.ID.Hex(),
		Username:       user.Username,
		Mail:           user.Mail,
		IsEmailVisible: user.IsEmailVisible,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Parse verifies a token string and returns its claims.
func (s *Service) Parse(tokenStr string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(Issuer), jwt.WithAudience(Audience), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
