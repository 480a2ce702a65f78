// Package statusengine holds the two pure functions of SPEC_FULL.md
// §4.6: EffectiveStatus and ValidateTransition. It is generalized from
// the teacher's Giveaway.HasEnded()-style status-derivation helpers in
// completion_service.go into an explicit, clock-injected, stateless
// pair of functions — holding no state of its own, per spec.
package statusengine

import (
	"time"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
)

// EffectiveStatus derives the status a caller should reason about from
// c's persisted status, the wall clock, and winner data.
func EffectiveStatus(c *contest.Contest, now time.Time) contest.Status {
	if c.Status.IsWorkflowAuthoritative() {
		return c.Status
	}
	switch {
	case c.WinnerSelectedAt != nil:
		return contest.StatusComplete
	case !c.EndTime.After(now):
		return contest.StatusEnded
	case c.StartTime.After(now):
		return contest.StatusUpcoming
	default:
		return contest.StatusActive
	}
}

// transitionRule names who may drive a given (old, new) status pair.
type transitionRule struct {
	old, new contest.Status
	scheduler bool
	admin     bool
	creator   bool
}

var allowedTransitions = []transitionRule{
	{old: contest.StatusDraft, new: contest.StatusAwaitingApproval, admin: true, creator: true},
	{old: contest.StatusDraft, new: contest.StatusCancelled, admin: true, creator: true},
	{old: contest.StatusAwaitingApproval, new: contest.StatusDraft, creator: true},
	{old: contest.StatusAwaitingApproval, new: contest.StatusUpcoming, admin: true},
	{old: contest.StatusAwaitingApproval, new: contest.StatusRejected, admin: true},
	{old: contest.StatusRejected, new: contest.StatusDraft, admin: true, creator: true},
	{old: contest.StatusUpcoming, new: contest.StatusActive, scheduler: true},
	{old: contest.StatusUpcoming, new: contest.StatusCancelled, admin: true},
	{old: contest.StatusActive, new: contest.StatusEnded, scheduler: true},
	{old: contest.StatusActive, new: contest.StatusCancelled, admin: true},
	{old: contest.StatusEnded, new: contest.StatusComplete, admin: true, scheduler: true},
}

// nonTerminalStatuses backs "any non-terminal -> cancelled (admin, with
// reason)" from the transition table. draft, upcoming and active already
// have explicit admin rows above; for awaiting_approval this is the only
// path to cancelled.
var nonTerminalStatuses = map[contest.Status]bool{
	contest.StatusDraft:            true,
	contest.StatusAwaitingApproval: true,
	contest.StatusUpcoming:         true,
	contest.StatusActive:           true,
}

// Actor describes who is requesting a transition.
type Actor struct {
	Role      user.Role
	IsCreator bool
	IsScheduler bool
}

// ValidateTransition reports whether actor may move a contest from old
// to new. System-initiated (scheduler) transitions pass IsScheduler=true
// and an empty Role.
func ValidateTransition(old, new contest.Status, actor Actor) error {
	if old == new {
		return apperrors.New(apperrors.KindConflict, "contest is already in the requested status")
	}

	if new == contest.StatusCancelled && nonTerminalStatuses[old] && actor.Role == user.RoleAdmin {
		return nil
	}

	for _, rule := range allowedTransitions {
		if rule.old != old || rule.new != new {
			continue
		}
		if rule.scheduler && actor.IsScheduler {
			return nil
		}
		if rule.admin && actor.Role == user.RoleAdmin {
			return nil
		}
		if rule.creator && actor.IsCreator && (actor.Role == user.RoleSponsor || actor.Role == user.RoleAdmin) {
			return nil
		}
		return apperrors.Forbidden("actor is not permitted to make this transition")
	}
	return apperrors.New(apperrors.KindConflict, "illegal status transition").
		WithFields(map[string]string{"status": string(old) + " -> " + string(new) + " is not a valid transition"})
}
