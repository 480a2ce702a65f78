// Package entrysvc implements EntryService (SPEC_FULL.md §4.8):
// eligibility-checked, duplicate-safe contest entry for both
// self-service entrants and admin-driven manual entry. Grounded on the
// teacher's internal/features/giveaway/service.Service.Participate
// (load-under-lock, duplicate check, insert, fire-and-forget
// notification), generalized to the full eligibility rule set
// (age, geography, per-person/global caps) spec.md §4.8 requires.
package entrysvc

import (
	"context"
	"errors"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/authz"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/geo"
	"github.com/open-builders/contestlet/internal/notify"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/statusengine"
	"github.com/open-builders/contestlet/internal/store"
)

type Service struct {
	store    store.Store
	clock    clock.Clock
	geo      geo.Service
	notifier *notify.Dispatcher
}

func New(st store.Store, clk clock.Clock, g geo.Service, notifier *notify.Dispatcher) *Service {
	return &Service{store: st, clock: clk, geo: g, notifier: notifier}
}

// EntrantLocation carries the free-text address (for geocoding) or, if
// already known, the coordinates the caller resolved earlier (e.g. from
// the user's saved profile).
type EntrantLocation struct {
	Address string
	Lat     *float64
	Lon     *float64
}

// SelfEntryInput is the caller-supplied payload for EnterSelf.
type SelfEntryInput struct {
	ContestID int64
	AgeYears  *int
	Location  EntrantLocation
}

func (s *Service) EnterSelf(ctx context.Context, actor authz.Actor, in SelfEntryInput) (*contest.Entry, error) {
	if !actor.Authenticated {
		return nil, apperrors.Unauthorized("authentication required")
	}

	var entry *contest.Entry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.LockForUpdate(ctx, in.ContestID)
		if err != nil {
			return translateLoadErr(err)
		}

		if err := s.checkEligibility(ctx, tx, c, actor.UserID, in.AgeYears, in.Location); err != nil {
			return err
		}

		e := &contest.Entry{
			ContestID: c.ID,
			UserID:    actor.UserID,
			Status:    contest.EntryStatusActive,
			Source:    contest.EntrySourceSelf,
		}
		id, err := tx.InsertEntry(ctx, e)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return apperrors.Conflict("a duplicate entry already exists for this contest")
			}
			return apperrors.DependencyUnavailable("failed to insert entry", err)
		}
		e.ID = id
		entry = e

		u, err := tx.GetUserByID(ctx, actor.UserID)
		if err != nil {
			return apperrors.DependencyUnavailable("failed to load entrant", err)
		}
		return s.notifier.Enqueue(ctx, notify.Job{
			UserID:       &actor.UserID,
			ContestID:    &c.ID,
			Phone:        u.Phone,
			TemplateType: contest.TemplateEntryConfirmation,
			Variables:    map[string]string{"contest_name": c.Name},
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ManualEntryInput is the caller-supplied payload for ManualEntry.
type ManualEntryInput struct {
	ContestID     int64
	Phone         string
	Source        contest.EntrySource
	Notes         string
	AdminOverride bool
	AgeYears      *int
	Location      EntrantLocation
}

func (s *Service) ManualEntry(ctx context.Context, actor authz.Actor, in ManualEntryInput) (*contest.Entry, error) {
	if err := authz.Decide(actor, nil, authz.ActionContestManualEntry); err != nil {
		return nil, err
	}
	if !in.AdminOverride {
		return nil, apperrors.Forbidden("admin_override must be explicitly set")
	}
	if !isValidE164(in.Phone) {
		return nil, apperrors.ValidationFailed(map[string]string{"phone": "must be E.164"})
	}
	switch in.Source {
	case contest.EntrySourceManualAdmin, contest.EntrySourcePhoneCall, contest.EntrySourceEvent:
	default:
		return nil, apperrors.ValidationFailed(map[string]string{"source": "must be a valid manual entry source"})
	}

	var entry *contest.Entry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		entrant, err := tx.GetUserByPhone(ctx, in.Phone)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return apperrors.DependencyUnavailable("failed to look up user", err)
			}
			newUser := &user.User{Phone: in.Phone, Role: user.RoleUser, IsVerified: false}
			id, err := tx.CreateUser(ctx, newUser)
			if err != nil {
				return apperrors.DependencyUnavailable("failed to create user", err)
			}
			newUser.ID = id
			entrant = newUser
		}

		c, err := tx.LockForUpdate(ctx, in.ContestID)
		if err != nil {
			return translateLoadErr(err)
		}

		if err := s.checkEligibility(ctx, tx, c, entrant.ID, in.AgeYears, in.Location); err != nil {
			return err
		}

		e := &contest.Entry{
			ContestID:        c.ID,
			UserID:           entrant.ID,
			Status:           contest.EntryStatusActive,
			Source:           in.Source,
			CreatedByAdminID: &actor.UserID,
			AdminNotes:       in.Notes,
		}
		id, err := tx.InsertEntry(ctx, e)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return apperrors.Conflict("a duplicate entry already exists for this contest")
			}
			return apperrors.DependencyUnavailable("failed to insert entry", err)
		}
		e.ID = id
		entry = e

		return s.notifier.Enqueue(ctx, notify.Job{
			UserID:       &entrant.ID,
			ContestID:    &c.ID,
			Phone:        entrant.Phone,
			TemplateType: contest.TemplateEntryConfirmation,
			Variables:    map[string]string{"contest_name": c.Name},
			Suppressed:   true,
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// checkEligibility applies the status, age, geography, and cap checks
// shared by EnterSelf and ManualEntry. ageYears nil skips the age check
// (spec.md §4.8 "age check skipped if no DOB is known").
func (s *Service) checkEligibility(ctx context.Context, tx store.Tx, c *contest.Contest, userID int64, ageYears *int, loc EntrantLocation) error {
	effective := statusengine.EffectiveStatus(c, s.clock.Now())
	if effective != contest.StatusActive {
		return apperrors.Conflict("contest is not currently accepting entries")
	}

	if ageYears != nil && *ageYears < c.MinimumAge {
		return apperrors.Forbidden("entrant does not meet the minimum age requirement")
	}

	if err := s.checkGeography(ctx, c, loc); err != nil {
		return err
	}

	maxPerPerson := 1
	if c.MaxEntriesPerPerson != nil {
		maxPerPerson = *c.MaxEntriesPerPerson
	}
	count, err := tx.CountForContestAndUser(ctx, c.ID, userID)
	if err != nil {
		return apperrors.DependencyUnavailable("failed to count existing entries", err)
	}
	if count >= maxPerPerson {
		return apperrors.Conflict("entrant has reached the maximum number of entries for this contest")
	}

	if c.TotalEntryLimit != nil {
		total, err := tx.CountForContest(ctx, c.ID)
		if err != nil {
			return apperrors.DependencyUnavailable("failed to count contest entries", err)
		}
		if total >= *c.TotalEntryLimit {
			return apperrors.Conflict("contest has reached its total entry limit")
		}
	}

	return nil
}

func (s *Service) checkGeography(ctx context.Context, c *contest.Contest, loc EntrantLocation) error {
	switch c.LocationType {
	case contest.LocationTypeUnitedStates, contest.LocationTypeCustom, "":
		return nil

	case contest.LocationTypeSpecificStates:
		// GeoService resolves an address to coordinates, not a state
		// code, so membership in selected_states cannot be verified here;
		// this check is advisory until a state-aware geocoder is wired.
		return nil

	case contest.LocationTypeRadius:
		if c.RadiusLatitude == nil || c.RadiusLongitude == nil || c.RadiusMiles == nil {
			return apperrors.Internal("contest is misconfigured for radius targeting", nil)
		}
		lat, lon, ok := loc.Lat, loc.Lon, loc.Lat != nil && loc.Lon != nil
		if !ok {
			if loc.Address == "" {
				return apperrors.Forbidden("entrant location is required for this contest")
			}
			glat, glon, _, err := s.geo.Geocode(ctx, loc.Address)
			if err != nil {
				return apperrors.DependencyUnavailable("geocoding unavailable", err)
			}
			lat, lon = &glat, &glon
		}
		if !geo.WithinRadius(*lat, *lon, *c.RadiusLatitude, *c.RadiusLongitude, *c.RadiusMiles) {
			return apperrors.Forbidden("entrant is outside the contest's eligible radius")
		}
		return nil

	default:
		return apperrors.Internal("unknown location_type", nil)
	}
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

func isValidE164(phone string) bool {
	if len(phone) < 8 || len(phone) > 16 || phone[0] != '+' {
		return false
	}
	for _, r := range phone[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
