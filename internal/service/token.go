package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"todo-backend/internal/domain"
)

// RoleClaims carries the role name and privilege set inside the token.
type RoleClaims struct {
	Role       string   `json:"role,omitempty"`
	Privileges []string `json:"privileges"`
}

// Claims is the JWT payload: subject is the user's email, Roles mirrors the
// principal resolved at issue time.
type Claims struct {
	Roles RoleClaims `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and validates signed bearer tokens. The signing secret
// and lifetime are fixed at construction and never mutated.
type TokenService interface {
	Issue(principal *domain.Principal) (string, error)
	// Subject extracts the subject without enforcing expiry, for fast-fail
	// lookups.
	Subject(token string) (string, error)
	// IsValid reports whether the signature verifies and the expiry is still
	// in the future. It never returns an error: any malformed, tampered or
	// expired token is simply invalid.
	IsValid(token string) bool
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) TokenService {
	return &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *tokenService) Issue(principal *domain.Principal) (string, error) {
	if principal == nil {
		return "", errors.New("principal is required")
	}

	now := time.Now()
	claims := Claims{
		Roles: RoleClaims{
			Role:       string(principal.Role),
			Privileges: principal.Privileges,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *tokenService) Subject(token string) (string, error) {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *tokenService) IsValid(token string) bool {
	claims, err := s.parse(token, jwt.WithExpirationRequired())
	if err != nil {
		return false
	}
	// wall-clock comparison: tokens stay valid across process restarts
	// within the window
	return claims.ExpiresAt != nil && time.Now().Before(claims.ExpiresAt.Time)
}

// parse verifies the signature before any claim is trusted; forged claims
// never survive a signature mismatch.
func (s *tokenService) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}
