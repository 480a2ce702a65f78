package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
)

func TestDecideUnauthenticatedAlwaysUnauthorized(t *testing.T) {
	anon := Actor{}
	for _, action := range []Action{
		ActionSelf, ActionContestCreateDraft, ActionContestUpdateDraft,
		ActionContestApprove, ActionContestReadRestricted,
	} {
		err := Decide(anon, nil, action)
		require.True(t, apperrors.Is(err, apperrors.KindUnauthorized), "action %s", action)
	}
}

func TestDecideCreateDraftRequiresSponsorOrAdmin(t *testing.T) {
	require.NoError(t, Decide(Actor{Authenticated: true, Role: user.RoleSponsor}, nil, ActionContestCreateDraft))
	require.NoError(t, Decide(Actor{Authenticated: true, Role: user.RoleAdmin}, nil, ActionContestCreateDraft))

	err := Decide(Actor{Authenticated: true, Role: user.RoleUser}, nil, ActionContestCreateDraft)
	require.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestDecideUpdateDraftOnlyOwningSponsorOrAdmin(t *testing.T) {
	owner := Actor{Authenticated: true, Role: user.RoleSponsor, UserID: 42}
	other := Actor{Authenticated: true, Role: user.RoleSponsor, UserID: 99}
	admin := Actor{Authenticated: true, Role: user.RoleAdmin, UserID: 1}
	target := &contest.Contest{CreatedByUserID: 42}

	require.NoError(t, Decide(owner, target, ActionContestUpdateDraft))
	require.NoError(t, Decide(admin, target, ActionContestUpdateDraft))

	err := Decide(other, target, ActionContestUpdateDraft)
	require.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestDecideApprovalActionsRequireAdmin(t *testing.T) {
	sponsor := Actor{Authenticated: true, Role: user.RoleSponsor, UserID: 42}
	admin := Actor{Authenticated: true, Role: user.RoleAdmin}

	for _, action := range []Action{ActionContestApprove, ActionContestReject, ActionContestForceStatus, ActionContestManualEntry} {
		require.NoError(t, Decide(admin, nil, action))
		err := Decide(sponsor, nil, action)
		require.True(t, apperrors.Is(err, apperrors.KindForbidden), "action %s", action)
	}
}

func TestDecideReadRestrictedOwnerOrAdminOnly(t *testing.T) {
	target := &contest.Contest{CreatedByUserID: 7}
	owner := Actor{Authenticated: true, Role: user.RoleSponsor, UserID: 7}
	other := Actor{Authenticated: true, Role: user.RoleUser, UserID: 8}
	admin := Actor{Authenticated: true, Role: user.RoleAdmin}

	require.NoError(t, Decide(owner, target, ActionContestReadRestricted))
	require.NoError(t, Decide(admin, target, ActionContestReadRestricted))

	err := Decide(other, target, ActionContestReadRestricted)
	require.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestIsPubliclyReadable(t *testing.T) {
	readable := []contest.Status{contest.StatusUpcoming, contest.StatusActive, contest.StatusEnded, contest.StatusComplete}
	for _, s := range readable {
		require.True(t, IsPubliclyReadable(s), "status %s", s)
	}

	hidden := []contest.Status{contest.StatusDraft, contest.StatusAwaitingApproval, contest.StatusRejected, contest.StatusCancelled}
	for _, s := range hidden {
		require.False(t, IsPubliclyReadable(s), "status %s", s)
	}
}
