package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenKindAdmin = "admin"
	TokenKindOwner = "owner"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are carried by every access token. Admin tokens also name the
// session they belong to.
type Claims struct {
	Kind      string `json:"kind"`
	SessionID string `json:"sid,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret   []byte
	adminTTL time.Duration
	ownerTTL time.Duration
	now      func() time.Time
}

func NewTokenManager(secret string, adminTTL, ownerTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), adminTTL: adminTTL, ownerTTL: ownerTTL, now: time.Now}
}

func (m *TokenManager) AdminTTL() time.Duration { return m.adminTTL }

func (m *TokenManager) sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

func (m *TokenManager) IssueAdmin(adminID, sessionID uuid.UUID, role string, expiresAt time.Time) (string, error) {
	return m.sign(Claims{
		Kind:      TokenKindAdmin,
		SessionID: sessionID.String(),
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID.String(),
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
}

func (m *TokenManager) IssueOwner(userID uuid.UUID) (string, time.Time, error) {
	exp := m.now().Add(m.ownerTTL)
	s, err := m.sign(Claims{
		Kind: TokenKindOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	return s, exp, err
}

// Parse verifies signature and expiry and returns the claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// SubjectOf returns the subject id of claims with the expected kind.
func (c *Claims) SubjectOf(kind string) (uuid.UUID, error) {
	if c.Kind != kind {
		return uuid.Nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, kind)
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}
