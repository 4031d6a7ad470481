package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
)

const (
	NormalTTL        = 7 * 24 * time.Hour
	ImpersonationTTL = time.Hour
)

// Claims is the identity carried by a session token.
// UserID holds the employee id; RecordID the database row id.
type Claims struct {
	UserID            string          `json:"userId"`
	Role              models.UserRole `json:"role"`
	RecordID          uint            `json:"mongoId"`
	OriginalAdminID   string          `json:"originalAdminId,omitempty"`
	OriginalAdminRole models.UserRole `json:"originalAdminRole,omitempty"`
	jwt.RegisteredClaims
}

// IsImpersonating is the only signal used to decide whether a session is assumed.
func (c *Claims) IsImpersonating() bool {
	return c != nil && c.OriginalAdminID != ""
}

type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs claims valid for ttl from now.
func (s *TokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	if claims.UserID == "" || !claims.Role.Valid() {
		return "", errors.New("session claims require user id and role")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("invalid session ttl %s", ttl)
	}

	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// Verify returns the claims only when the token is well formed, signed with our key
// and not expired. Callers cannot tell the failure causes apart.
func (s *TokenService) Verify(raw string) (*Claims, bool) {
	if raw == "" {
		return nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, false
	}
	return claims, true
}
