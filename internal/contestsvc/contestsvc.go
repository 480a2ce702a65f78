// Package contestsvc implements ContestService (SPEC_FULL.md §4.7):
// draft/submit/approve/reject workflow, unified deletion, and winner
// selection. Grounded on the teacher's internal/service/giveaway.Service
// (transactional Create/GetByID/UpdateStatus shape, injected
// dependencies via constructor) generalized from a single-status update
// to the full multi-actor approval workflow plus cryptographically
// secure winner draws (teacher's completion_service.go:selectWinnersRandom
// used math/rand; this upgrades the draw to internal/platform/random).
package contestsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/auditlog"
	"github.com/open-builders/contestlet/internal/authz"
	"github.com/open-builders/contestlet/internal/domain/audit"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/notify"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/platform/random"
	"github.com/open-builders/contestlet/internal/statusengine"
	"github.com/open-builders/contestlet/internal/store"
)

type Service struct {
	store    store.Store
	clock    clock.Clock
	random   random.Random
	notifier *notify.Dispatcher
}

func New(st store.Store, clk clock.Clock, rnd random.Random, notifier *notify.Dispatcher) *Service {
	return &Service{store: st, clock: clk, random: rnd, notifier: notifier}
}

// CreateInput is the caller-supplied payload for CreateDraft.
type CreateInput struct {
	SponsorProfileID int64
	Contest          contest.Contest
	Rules            contest.OfficialRules
}

func (s *Service) CreateDraft(ctx context.Context, actor authz.Actor, in CreateInput) (*contest.Contest, error) {
	if err := authz.Decide(actor, nil, authz.ActionContestCreateDraft); err != nil {
		return nil, err
	}

	c := in.Contest
	c.CreatedByUserID = actor.UserID
	c.SponsorProfileID = in.SponsorProfileID
	c.Status = contest.StatusDraft
	if fields := c.Validate(); len(fields) > 0 {
		return nil, apperrors.ValidationFailed(fields)
	}

	var created *contest.Contest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		id, err := tx.InsertContest(ctx, &c)
		if err != nil {
			return apperrors.DependencyUnavailable("failed to insert contest", err)
		}
		c.ID = id

		rules := in.Rules
		rules.ContestID = id
		rules.StartDate = c.StartTime
		rules.EndDate = c.EndTime
		if err := tx.UpsertOfficialRules(ctx, &rules); err != nil {
			return apperrors.DependencyUnavailable("failed to insert official rules", err)
		}
		created = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateInput carries a partial patch; zero-value Contest fields are
// applied verbatim, matching §4.7 "arbitrary fields may change".
func (s *Service) UpdateDraft(ctx context.Context, actor authz.Actor, id int64, patch contest.Contest, rules *contest.OfficialRules) (*contest.Contest, error) {
	var updated *contest.Contest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		existing, err := tx.LockForUpdate(ctx, id)
		if err != nil {
			return translateLoadErr(err)
		}
		if err := authz.Decide(actor, existing, authz.ActionContestUpdateDraft); err != nil {
			return err
		}
		if existing.Status != contest.StatusDraft && existing.Status != contest.StatusRejected {
			return apperrors.Conflict("contest may only be edited while in draft or rejected status")
		}

		patch.ID = existing.ID
		patch.CreatedByUserID = existing.CreatedByUserID
		patch.SponsorProfileID = existing.SponsorProfileID
		patch.Status = existing.Status
		if fields := patch.Validate(); len(fields) > 0 {
			return apperrors.ValidationFailed(fields)
		}

		if err := tx.UpdateContest(ctx, &patch); err != nil {
			return apperrors.DependencyUnavailable("failed to update contest", err)
		}
		if rules != nil {
			rules.ContestID = id
			rules.StartDate = patch.StartTime
			rules.EndDate = patch.EndTime
			if err := tx.UpsertOfficialRules(ctx, rules); err != nil {
				return apperrors.DependencyUnavailable("failed to update official rules", err)
			}
		}
		updated = &patch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Submit(ctx context.Context, actor authz.Actor, id int64, message string) (*contest.Contest, error) {
	return s.transition(ctx, actor, id, contest.StatusAwaitingApproval, authz.ActionContestSubmit, func(c *contest.Contest, tx store.Tx) error {
		now := s.clock.Now()
		c.SubmittedAt = &now
		c.ApprovalMessage = message
		return nil
	}, audit.ReasonSubmitted, "submitted for approval")
}

func (s *Service) Withdraw(ctx context.Context, actor authz.Actor, id int64) (*contest.Contest, error) {
	return s.transition(ctx, actor, id, contest.StatusDraft, authz.ActionContestWithdraw, nil, audit.ReasonWithdrawn, "withdrawn by creator")
}

func (s *Service) Approve(ctx context.Context, actor authz.Actor, id int64, message string) (*contest.Contest, error) {
	return s.transition(ctx, actor, id, contest.StatusUpcoming, authz.ActionContestApprove, func(c *contest.Contest, tx store.Tx) error {
		now := s.clock.Now()
		c.ApprovedAt = &now
		c.ApprovedByUserID = &actor.UserID
		c.ApprovalMessage = message
		return tx.InsertApprovalAudit(ctx, &audit.ContestApprovalAudit{
			ContestID: id, Action: audit.ApprovalActionApproved, By: actor.UserID, Reason: message,
		})
	}, audit.ReasonApproved, "approved by admin")
}

func (s *Service) Reject(ctx context.Context, actor authz.Actor, id int64, reason string) (*contest.Contest, error) {
	return s.transition(ctx, actor, id, contest.StatusRejected, authz.ActionContestReject, func(c *contest.Contest, tx store.Tx) error {
		now := s.clock.Now()
		c.RejectedAt = &now
		c.RejectionReason = reason
		return tx.InsertApprovalAudit(ctx, &audit.ContestApprovalAudit{
			ContestID: id, Action: audit.ApprovalActionRejected, By: actor.UserID, Reason: reason,
		})
	}, audit.ReasonRejected, reason)
}

// BulkApproveResult reports the outcome for a single contest within a
// bulk operation; §4.7 requires partial failure never abort the batch.
type BulkApproveResult struct {
	ContestID int64
	Error     error
}

func (s *Service) BulkApprove(ctx context.Context, actor authz.Actor, ids []int64, approved bool, reason string) []BulkApproveResult {
	results := make([]BulkApproveResult, 0, len(ids))
	for _, id := range ids {
		var err error
		if approved {
			_, err = s.Approve(ctx, actor, id, reason)
		} else {
			_, err = s.Reject(ctx, actor, id, reason)
		}
		results = append(results, BulkApproveResult{ContestID: id, Error: err})
	}
	return results
}

// transition loads the contest under lock, validates the status
// transition, applies mutate (which may write its own sub-transaction
// audit rows), persists, and writes the StatusAudit row — all within a
// single Store transaction.
func (s *Service) transition(
	ctx context.Context, actor authz.Actor, id int64, newStatus contest.Status, action authz.Action,
	mutate func(c *contest.Contest, tx store.Tx) error, reasonCode audit.ReasonCode, reason string,
) (*contest.Contest, error) {
	var result *contest.Contest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.LockForUpdate(ctx, id)
		if err != nil {
			return translateLoadErr(err)
		}
		if err := authz.Decide(actor, c, action); err != nil {
			return err
		}

		engineActor := statusengine.Actor{Role: actor.Role, IsCreator: c.CreatedByUserID == actor.UserID}
		if err := statusengine.ValidateTransition(c.Status, newStatus, engineActor); err != nil {
			return err
		}

		oldStatus := c.Status
		if mutate != nil {
			if err := mutate(c, tx); err != nil {
				return err
			}
		}
		c.Status = newStatus
		if err := tx.UpdateContest(ctx, c); err != nil {
			return apperrors.DependencyUnavailable("failed to persist status transition", err)
		}

		log := auditlog.New(tx)
		var by *int64
		if actor.Authenticated {
			by = &actor.UserID
		}
		if err := log.RecordStatusChange(ctx, id, oldStatus, newStatus, by, string(actor.Role), reasonCode, reason); err != nil {
			return apperrors.DependencyUnavailable("failed to record status audit", err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete implements the unified deletion protection rules of §4.7.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.LockForUpdate(ctx, id)
		if err != nil {
			return translateLoadErr(err)
		}
		if err := authz.Decide(actor, c, authz.ActionContestDeleteDraft); err != nil {
			return err
		}

		switch c.Status {
		case contest.StatusDraft, contest.StatusRejected, contest.StatusCancelled:
			// allowed unconditionally
		case contest.StatusUpcoming, contest.StatusEnded, contest.StatusComplete:
			if actor.Role != user.RoleAdmin {
				return apperrors.Forbidden("only an admin may delete a contest in this status")
			}
			count, err := tx.EntryCountForContest(ctx, id)
			if err != nil {
				return apperrors.DependencyUnavailable("failed to count entries", err)
			}
			if count > 0 {
				return apperrors.Conflict(fmt.Sprintf("contest has %d entries", count))
			}
		default:
			return apperrors.Conflict("contest cannot be deleted in its current status")
		}

		if err := tx.DeleteContest(ctx, id); err != nil {
			return apperrors.DependencyUnavailable("failed to delete contest", err)
		}
		return nil
	})
}

// SelectWinners draws count distinct active entries uniformly at random
// using a cryptographically secure source, per §4.7.
func (s *Service) SelectWinners(ctx context.Context, actor authz.Actor, id int64, count int, tiers []contest.PrizeTier) (*contest.Contest, []contest.Winner, error) {
	if count < 1 || count > 50 {
		return nil, nil, apperrors.ValidationFailed(map[string]string{"winner_count": "must be between 1 and 50"})
	}

	var resultContest *contest.Contest
	var resultWinners []contest.Winner
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.LockForUpdate(ctx, id)
		if err != nil {
			return translateLoadErr(err)
		}
		if err := authz.Decide(actor, c, authz.ActionContestForceStatus); err != nil {
			return err
		}
		effective := statusengine.EffectiveStatus(c, s.clock.Now())
		if effective != contest.StatusEnded {
			return apperrors.Conflict("contest must be ended before winners can be selected")
		}

		entries, err := tx.ListActiveEntries(ctx, id)
		if err != nil {
			return apperrors.DependencyUnavailable("failed to list entries", err)
		}
		if len(entries) < count {
			return apperrors.Conflict("insufficient entries to select the requested number of winners")
		}

		s.random.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
		drawn := entries[:count]

		winners := make([]contest.Winner, 0, count)
		for position := 1; position <= count; position++ {
			entry := drawn[position-1]
			prize := ""
			for _, t := range tiers {
				if t.Position == position {
					prize = t.Prize
				}
			}
			w := &contest.Winner{ContestID: id, WinnerPosition: position, EntryID: entry.ID, PrizeDescription: prize}
			winnerID, err := tx.InsertWinner(ctx, w)
			if err != nil {
				return apperrors.DependencyUnavailable("failed to insert winner", err)
			}
			w.ID = winnerID
			if err := tx.SetEntryStatus(ctx, entry.ID, contest.EntryStatusWinner); err != nil {
				return apperrors.DependencyUnavailable("failed to mark entry as winner", err)
			}
			winners = append(winners, *w)
		}

		now := s.clock.Now()
		c.WinnerSelectedAt = &now
		c.WinnerEntryID = &winners[0].EntryID
		oldStatus := c.Status
		c.Status = contest.StatusComplete
		if err := tx.UpdateContest(ctx, c); err != nil {
			return apperrors.DependencyUnavailable("failed to persist contest completion", err)
		}

		log := auditlog.New(tx)
		var by *int64
		if actor.Authenticated {
			by = &actor.UserID
		}
		if err := log.RecordStatusChange(ctx, id, oldStatus, contest.StatusComplete, by, string(actor.Role), audit.ReasonWinnersSelected, "winners selected"); err != nil {
			return apperrors.DependencyUnavailable("failed to record status audit", err)
		}

		resultContest = c
		resultWinners = winners
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resultContest, resultWinners, nil
}

// ReselectWinner replaces the winner at position with a new draw from
// the remaining active (non-winning) entries.
func (s *Service) ReselectWinner(ctx context.Context, actor authz.Actor, id int64, position int) (*contest.Winner, error) {
	var result *contest.Winner
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.LockForUpdate(ctx, id)
		if err != nil {
			return translateLoadErr(err)
		}
		if err := authz.Decide(actor, c, authz.ActionContestForceStatus); err != nil {
			return err
		}

		if err := tx.DeleteWinnerByPosition(ctx, id, position); err != nil {
			return apperrors.DependencyUnavailable("failed to remove existing winner", err)
		}

		entries, err := tx.ListActiveEntries(ctx, id)
		if err != nil {
			return apperrors.DependencyUnavailable("failed to list entries", err)
		}
		existingWinners, err := tx.ListWinnersByContest(ctx, id)
		if err != nil {
			return apperrors.DependencyUnavailable("failed to list winners", err)
		}
		taken := make(map[int64]bool, len(existingWinners))
		for _, w := range existingWinners {
			taken[w.EntryID] = true
		}
		candidates := entries[:0:0]
		for _, e := range entries {
			if !taken[e.ID] {
				candidates = append(candidates, e)
			}
		}
		if len(candidates) == 0 {
			return apperrors.Conflict("no remaining eligible entries to draw a replacement winner")
		}

		s.random.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		chosen := candidates[0]

		w := &contest.Winner{ContestID: id, WinnerPosition: position, EntryID: chosen.ID}
		winnerID, err := tx.InsertWinner(ctx, w)
		if err != nil {
			return apperrors.DependencyUnavailable("failed to insert replacement winner", err)
		}
		w.ID = winnerID
		if err := tx.SetEntryStatus(ctx, chosen.ID, contest.EntryStatusWinner); err != nil {
			return apperrors.DependencyUnavailable("failed to mark entry as winner", err)
		}
		result = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// NotifyWinners enqueues a winner_notification job per unnotified
// winner; test=true enqueues without marking notified_at so operators
// can dry-run copy.
func (s *Service) NotifyWinners(ctx context.Context, actor authz.Actor, id int64, test bool) (int, error) {
	if err := authz.Decide(actor, nil, authz.ActionContestForceStatus); err != nil {
		return 0, err
	}

	agg, err := s.store.LoadContestWithRelations(ctx, id, store.ContestRelations{Winners: true, Entries: true})
	if err != nil {
		return 0, translateLoadErr(err)
	}

	notified := 0
	for _, w := range agg.Winners {
		if w.NotifiedAt != nil {
			continue
		}
		var userID int64
		for _, e := range agg.Entries {
			if e.ID == w.EntryID {
				userID = e.UserID
			}
		}
		u, err := s.store.GetUserByID(ctx, userID)
		if err != nil {
			continue
		}

		job := notify.Job{
			UserID:       &u.ID,
			ContestID:    &id,
			Phone:        u.Phone,
			TemplateType: contest.TemplateWinnerNotification,
			Variables: map[string]string{
				"contest_name":      agg.Contest.Name,
				"prize_description": w.PrizeDescription,
				"claim_instructions": "Reply to this message to claim your prize.",
			},
		}
		if err := s.notifier.Enqueue(ctx, job); err != nil {
			continue
		}
		notified++

		if !test {
			now := s.clock.Now()
			_ = s.store.SetWinnerNotified(ctx, w.ID, now)
		}
	}
	return notified, nil
}

func translateLoadErr(err error) error {
	if ae, ok := apperrors.As(err); ok {
		return ae
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("contest not found")
	}
	return apperrors.DependencyUnavailable("failed to load contest", err)
}
