package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jpvargas/guardian/pkg/guardian/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims represents the JWT claims
type Claims struct {
	RolName string `json:"rolName"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	jwt.RegisteredClaims
}

// TokenManager mints, validates and refreshes bearer tokens using a
// symmetric signing secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	grace  time.Duration
}

// NewTokenManager builds a TokenManager from process configuration.
func NewTokenManager(cfg config.Config) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		grace:  cfg.RefreshGrace,
	}
}

// Generate creates a new signed token for the given principal.
func (m *TokenManager) Generate(identity, roleName, email, name, status string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RolName: roleName,
		Email:   email,
		Name:    name,
		Status:  status,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    "guardian",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return m.secret, nil
}

// Validate verifies signature and expiration and returns the claims.
// Expired tokens are reported as ErrExpiredToken so callers can tell them
// apart from malformed ones.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Refresh decodes the token ignoring expiry and issues a new one with
// identical claims and a fresh TTL, provided the old token is not past
// its expiry plus the grace window. Beyond the grace window the refresh
// is rejected with ErrExpiredToken.
func (m *TokenManager) Refresh(tokenString string) (string, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, m.keyFunc)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil {
		return "", ErrInvalidToken
	}

	if time.Now().After(claims.ExpiresAt.Add(m.grace)) {
		return "", ErrExpiredToken
	}

	return m.Generate(claims.Subject, claims.RolName, claims.Email, claims.Name, claims.Status)
}
