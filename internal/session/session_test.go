package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/platform/clock"
)

func newTestService(clk clock.Clock) *Service {
	return New("test-secret-do-not-use-in-prod", time.Hour, 7*24*time.Hour, clk)
}

func TestMintAndVerifyAccessToken(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newTestService(clk)
	u := &user.User{ID: 5, Phone: "+15551234567", Role: user.RoleSponsor}

	access, refresh, err := s.Mint(u, true)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := s.Verify(access, TypeAccess)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, u.Phone, claims.Phone)
	require.Equal(t, u.Role, claims.Role)
}

func TestMintWithoutRefreshReturnsEmptyRefresh(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	s := newTestService(clk)
	u := &user.User{ID: 1, Role: user.RoleUser}

	_, refresh, err := s.Mint(u, false)
	require.NoError(t, err)
	require.Empty(t, refresh)
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	s := newTestService(clk)
	u := &user.User{ID: 1, Role: user.RoleUser}

	_, refresh, err := s.Mint(u, true)
	require.NoError(t, err)

	_, err = s.Verify(refresh, TypeAccess)
	require.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newTestService(clk)
	u := &user.User{ID: 1, Role: user.RoleUser}

	access, _, err := s.Mint(u, false)
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = s.Verify(access, TypeAccess)
	require.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestVerifyRejectsTokenSignedWithDifferentSecret(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	a := New("secret-a", time.Hour, time.Hour, clk)
	b := New("secret-b", time.Hour, time.Hour, clk)
	u := &user.User{ID: 1, Role: user.RoleUser}

	access, _, err := a.Mint(u, false)
	require.NoError(t, err)

	_, err = b.Verify(access, TypeAccess)
	require.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	s := newTestService(clk)
	_, err := s.Verify("not-a-real-token", TypeAccess)
	require.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}
