// Package auth issues and verifies the single admin bearer token the web
// surface's config-mutation endpoint requires, adapted from the teacher's
// user Register/Login/ValidateToken service: same bcrypt-hash-then-compare
// and HS256 JWT issuance shape, repointed at one operator credential since
// the spec has no multi-user/session model.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrInvalidToken       = errors.New("invalid or expired admin token")
)

const adminRoleClaim = "admin"

// Service issues and verifies admin bearer tokens. adminPasswordHash is a
// bcrypt hash of the single operator-configured admin password; no user
// table exists in this schema, so there is exactly one credential.
type Service struct {
	jwtSecret         []byte
	adminPasswordHash []byte
}

// NewService builds a Service. adminPasswordHash must already be a bcrypt
// hash (see HashPassword); jwtSecret signs the issued tokens.
func NewService(jwtSecret, adminPasswordHash string) *Service {
	if jwtSecret == "" {
		jwtSecret = "development-secret-key-change-in-production"
	}
	return &Service{
		jwtSecret:         []byte(jwtSecret),
		adminPasswordHash: []byte(adminPasswordHash),
	}
}

// HashPassword bcrypt-hashes a plaintext admin password for storage in
// configuration, mirroring the teacher's Register-time hashing.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing admin password: %w", err)
	}
	return string(hashed), nil
}

// IssueToken verifies the supplied password against the configured hash
// and, on success, signs a short-lived admin-scoped JWT.
func (s *Service) IssueToken(password string) (string, error) {
	if len(s.adminPasswordHash) == 0 {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": adminRoleClaim,
		"exp":  time.Now().Add(12 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing admin token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the token's signature, expiry, and admin role claim.
func (s *Service) ValidateToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["role"] != adminRoleClaim {
		return ErrInvalidToken
	}
	return nil
}
