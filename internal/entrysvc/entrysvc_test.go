package entrysvc

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/authz"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/geo"
	"github.com/open-builders/contestlet/internal/notify"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/sms"
	"github.com/open-builders/contestlet/internal/store/memstore"
)

func newTestService(t *testing.T, clk clock.Clock) (*Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	dispatcher := notify.New(st, sms.NewMock(), zerolog.Nop(), 64)
	svc := New(st, clk, geo.NewMock(), dispatcher)
	return svc, st
}

func activeContest(t *testing.T, ctx context.Context, st *memstore.Store, now time.Time, mutate func(*contest.Contest)) contest.Contest {
	t.Helper()
	c := contest.Contest{
		Name:             "Free Tacos",
		StartTime:        now.Add(-time.Hour),
		EndTime:          now.Add(time.Hour),
		Status:           contest.StatusUpcoming,
		MinimumAge:       18,
		WinnerCount:      1,
		LocationType:     contest.LocationTypeUnitedStates,
	}
	if mutate != nil {
		mutate(&c)
	}
	id, err := st.InsertContest(ctx, &c)
	require.NoError(t, err)
	c.ID = id
	return c
}

func verifiedUser(t *testing.T, ctx context.Context, st *memstore.Store, phone string) user.User {
	t.Helper()
	u := user.User{Phone: phone, Role: user.RoleUser, IsVerified: true}
	id, err := st.CreateUser(ctx, &u)
	require.NoError(t, err)
	u.ID = id
	return u
}

// S2: a second self-entry into the same contest by the same user is
// rejected as a duplicate, and the entry count stays at one.
func TestEnterSelf_DuplicateRejected(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	c := activeContest(t, ctx, st, now, nil)
	u := verifiedUser(t, ctx, st, "+15551230001")
	actor := authz.Actor{Authenticated: true, UserID: u.ID, Role: user.RoleUser}

	entry, err := svc.EnterSelf(ctx, actor, SelfEntryInput{ContestID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, contest.EntryStatusActive, entry.Status)

	_, err = svc.EnterSelf(ctx, actor, SelfEntryInput{ContestID: c.ID})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	count, err := st.CountForContest(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// Entry is rejected outside the active window.
func TestEnterSelf_RejectsOutsideActiveWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	c := activeContest(t, ctx, st, now, func(c *contest.Contest) {
		c.StartTime = now.Add(time.Hour)
		c.EndTime = now.Add(2 * time.Hour)
	})
	u := verifiedUser(t, ctx, st, "+15551230002")
	actor := authz.Actor{Authenticated: true, UserID: u.ID, Role: user.RoleUser}

	_, err := svc.EnterSelf(ctx, actor, SelfEntryInput{ContestID: c.ID})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

// Age below minimum_age is rejected when the caller supplies an age.
func TestEnterSelf_RejectsUnderage(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	c := activeContest(t, ctx, st, now, nil)
	u := verifiedUser(t, ctx, st, "+15551230003")
	actor := authz.Actor{Authenticated: true, UserID: u.ID, Role: user.RoleUser}

	age := 16
	_, err := svc.EnterSelf(ctx, actor, SelfEntryInput{ContestID: c.ID, AgeYears: &age})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

// Unauthenticated callers may never self-enter.
func TestEnterSelf_RequiresAuthentication(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	c := activeContest(t, ctx, st, now, nil)

	_, err := svc.EnterSelf(ctx, authz.Actor{}, SelfEntryInput{ContestID: c.ID})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

// The global total_entry_limit is enforced across all entrants.
func TestEnterSelf_RespectsTotalEntryLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	limit := 1
	c := activeContest(t, ctx, st, now, func(c *contest.Contest) { c.TotalEntryLimit = &limit })

	u1 := verifiedUser(t, ctx, st, "+15551230004")
	u2 := verifiedUser(t, ctx, st, "+15551230005")

	_, err := svc.EnterSelf(ctx, authz.Actor{Authenticated: true, UserID: u1.ID, Role: user.RoleUser}, SelfEntryInput{ContestID: c.ID})
	require.NoError(t, err)

	_, err = svc.EnterSelf(ctx, authz.Actor{Authenticated: true, UserID: u2.ID, Role: user.RoleUser}, SelfEntryInput{ContestID: c.ID})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

// Radius-targeted contests reject entrants outside the configured
// radius and accept those inside it.
func TestEnterSelf_RadiusEligibility(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	lat, lon, miles := 37.7749, -122.4194, 10.0
	c := activeContest(t, ctx, st, now, func(c *contest.Contest) {
		c.LocationType = contest.LocationTypeRadius
		c.RadiusLatitude, c.RadiusLongitude, c.RadiusMiles = &lat, &lon, &miles
	})

	u := verifiedUser(t, ctx, st, "+15551230006")
	actor := authz.Actor{Authenticated: true, UserID: u.ID, Role: user.RoleUser}

	farLat, farLon := 40.7128, -74.0060 // New York, well outside 10 miles of SF
	_, err := svc.EnterSelf(ctx, actor, SelfEntryInput{ContestID: c.ID, Location: EntrantLocation{Lat: &farLat, Lon: &farLon}})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	nearLat, nearLon := 37.78, -122.41
	entry, err := svc.EnterSelf(ctx, actor, SelfEntryInput{ContestID: c.ID, Location: EntrantLocation{Lat: &nearLat, Lon: &nearLon}})
	require.NoError(t, err)
	assert.Equal(t, contest.EntryStatusActive, entry.Status)
}

// S5: admin manual entry auto-provisions a new user and records a
// suppressed notification.
func TestManualEntry_CreatesUserAndSuppressesNotification(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	c := activeContest(t, ctx, st, now, nil)
	admin := authz.Actor{Authenticated: true, UserID: 1, Role: user.RoleAdmin}

	entry, err := svc.ManualEntry(ctx, admin, ManualEntryInput{
		ContestID:     c.ID,
		Phone:         "+15551230001",
		Source:        contest.EntrySourcePhoneCall,
		Notes:         "Customer called in",
		AdminOverride: true,
	})
	require.NoError(t, err)
	assert.Equal(t, contest.EntrySourcePhoneCall, entry.Source)
	require.NotNil(t, entry.CreatedByAdminID)
	assert.Equal(t, admin.UserID, *entry.CreatedByAdminID)

	created, err := st.GetUserByPhone(ctx, "+15551230001")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, created.Role)
	assert.False(t, created.IsVerified)
}

// ManualEntry requires both role=admin and the explicit admin_override
// flag; neither alone suffices.
func TestManualEntry_RequiresAdminOverrideFlag(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	c := activeContest(t, ctx, st, now, nil)
	admin := authz.Actor{Authenticated: true, UserID: 1, Role: user.RoleAdmin}

	_, err := svc.ManualEntry(ctx, admin, ManualEntryInput{
		ContestID: c.ID, Phone: "+15551230002", Source: contest.EntrySourcePhoneCall, AdminOverride: false,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	nonAdmin := authz.Actor{Authenticated: true, UserID: 2, Role: user.RoleUser}
	_, err = svc.ManualEntry(ctx, nonAdmin, ManualEntryInput{
		ContestID: c.ID, Phone: "+15551230002", Source: contest.EntrySourcePhoneCall, AdminOverride: true,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

// Manual entry skips the age check entirely when no DOB is supplied
// (DESIGN.md open-question #4).
func TestManualEntry_SkipsAgeCheckWhenDOBUnknown(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc, st := newTestService(t, clk)
	ctx := context.Background()

	c := activeContest(t, ctx, st, now, func(c *contest.Contest) { c.MinimumAge = 21 })
	admin := authz.Actor{Authenticated: true, UserID: 1, Role: user.RoleAdmin}

	entry, err := svc.ManualEntry(ctx, admin, ManualEntryInput{
		ContestID: c.ID, Phone: "+15551230003", Source: contest.EntrySourceEvent, AdminOverride: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
}
