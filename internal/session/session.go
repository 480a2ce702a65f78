// Package session mints and verifies the bearer tokens described in
// SPEC_FULL.md §4.4, following the HMAC-JWT shape of
// r3e-network-service_layer's pkg/auth.SupabaseAuth.ValidateToken
// (parse, check signing method, check claims) generalized from Supabase's
// fixed claim set to Contestlet's {sub, phone, role, typ}.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/platform/clock"
)

// TokenType distinguishes access tokens from refresh tokens so a refresh
// token can never be accepted where an access token is required
// (SPEC_FULL.md §4.4 WrongTokenType).
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Claims is the decoded payload of a Contestlet bearer token.
type Claims struct {
	UserID int64
	Phone  string    `json:"phone"`
	Role   user.Role `json:"role"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Service mints and verifies tokens under a single shared HMAC secret.
// Unlike SupabaseAuth it owns minting too, since Contestlet has no
// external identity provider.
type Service struct {
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	clock       clock.Clock
}

func New(secret string, accessTTL, refreshTTL time.Duration, clk clock.Clock) *Service {
	return &Service{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, clock: clk}
}

// Mint produces an access token for u, plus a refresh token when
// withRefresh is true.
func (s *Service) Mint(u *user.User, withRefresh bool) (accessToken string, refreshToken string, err error) {
	accessToken, err = s.mint(u, TypeAccess, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	if !withRefresh {
		return accessToken, "", nil
	}
	refreshToken, err = s.mint(u, TypeRefresh, s.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (s *Service) mint(u *user.User, typ TokenType, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		UserID: u.ID,
		Phone:  u.Phone,
		Role:   u.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.Internal("failed to sign session token", err)
	}
	return signed, nil
}

// Verify parses and validates token, requiring it to be of wantType.
func (s *Service) Verify(token string, wantType TokenType) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Unauthorized("session token expired")
		}
		return nil, apperrors.Unauthorized("invalid session token")
	}
	if !parsed.Valid {
		return nil, apperrors.Unauthorized("invalid session token")
	}
	if claims.Type != wantType {
		return nil, apperrors.Unauthorized("wrong token type")
	}
	return &claims, nil
}
