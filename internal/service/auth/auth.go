// Package auth provides optional operator authentication: a bcrypt-checked
// admin login that issues short-lived HS256 tokens. When no password hash is
// configured the service is disabled and the API stays open (demo mode).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service issues and validates operator tokens.
type Service struct {
	secret       []byte
	tokenTTL     time.Duration
	passwordHash string
}

// NewService creates the auth service. An empty passwordHash disables auth.
func NewService(secret string, tokenTTL time.Duration, passwordHash string) *Service {
	return &Service{
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		passwordHash: passwordHash,
	}
}

// Enabled reports whether operator authentication is configured.
func (s *Service) Enabled() bool {
	return s.passwordHash != ""
}

// Login checks the admin password and returns a signed token.
func (s *Service) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "admin",
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks a token and returns its subject, used as the audit actor.
func (s *Service) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
