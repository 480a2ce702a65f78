// Package authz centralizes the (actor, resource, action) → allow/deny
// rule table of SPEC_FULL.md §4.5 into a single pure function, the way
// the teacher's RequireAuth/RequireAdmin gin middleware
// (internal/common/middleware/auth.go) centralizes its own two-role
// check — generalized here from a binary admin/non-admin gate to the
// full admin/sponsor/user + ownership rule table.
package authz

import (
	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
)

// Action is a closed set of privileged operations the rule table names.
type Action string

const (
	ActionSelf                   Action = "self"
	ActionContestCreateDraft     Action = "contest.create_draft"
	ActionContestUpdateDraft     Action = "contest.update_draft"
	ActionContestSubmit          Action = "contest.submit"
	ActionContestWithdraw        Action = "contest.withdraw"
	ActionContestDeleteDraft     Action = "contest.delete_draft"
	ActionContestApprove         Action = "contest.approve"
	ActionContestReject          Action = "contest.reject"
	ActionContestForceStatus     Action = "contest.force_status"
	ActionContestOverrideEdit    Action = "contest.override_restricted_edit"
	ActionContestManualEntry     Action = "contest.manual_entry"
	ActionContestReadRestricted  Action = "contest.read_restricted"
)

// Actor is the authenticated caller's identity, or the zero value for
// an unauthenticated request.
type Actor struct {
	Authenticated bool
	UserID        int64
	Role          user.Role
}

// Decide applies SPEC_FULL.md §4.5's rule table. target is nil for
// actions that don't reference a specific contest (e.g. create_draft).
func Decide(actor Actor, target *contest.Contest, action Action) error {
	switch action {
	case ActionSelf:
		if !actor.Authenticated {
			return apperrors.Unauthorized("authentication required")
		}
		return nil

	case ActionContestCreateDraft:
		if !actor.Authenticated {
			return apperrors.Unauthorized("authentication required")
		}
		if actor.Role != user.RoleSponsor && actor.Role != user.RoleAdmin {
			return apperrors.Forbidden("only sponsors or admins may create contests")
		}
		return nil

	case ActionContestUpdateDraft, ActionContestSubmit, ActionContestWithdraw, ActionContestDeleteDraft:
		if !actor.Authenticated {
			return apperrors.Unauthorized("authentication required")
		}
		if actor.Role != user.RoleSponsor && actor.Role != user.RoleAdmin {
			return apperrors.Forbidden("only sponsors or admins may manage contests")
		}
		if actor.Role == user.RoleAdmin {
			return nil
		}
		if target == nil || target.CreatedByUserID != actor.UserID {
			return apperrors.Forbidden("only the contest's creator may perform this action")
		}
		return nil

	case ActionContestApprove, ActionContestReject, ActionContestForceStatus,
		ActionContestOverrideEdit, ActionContestManualEntry:
		if !actor.Authenticated {
			return apperrors.Unauthorized("authentication required")
		}
		if actor.Role != user.RoleAdmin {
			return apperrors.Forbidden("admin role required")
		}
		return nil

	case ActionContestReadRestricted:
		if !actor.Authenticated {
			return apperrors.Unauthorized("authentication required")
		}
		if actor.Role == user.RoleAdmin {
			return nil
		}
		if target == nil || target.CreatedByUserID != actor.UserID {
			return apperrors.Forbidden("contest is not visible to this actor")
		}
		return nil

	default:
		return apperrors.Forbidden("unknown action")
	}
}

// IsPubliclyReadable reports whether effective is visible without
// authentication (SPEC_FULL.md §4.5 "public actions").
func IsPubliclyReadable(effective contest.Status) bool {
	switch effective {
	case contest.StatusUpcoming, contest.StatusActive, contest.StatusEnded, contest.StatusComplete:
		return true
	default:
		return false
	}
}
