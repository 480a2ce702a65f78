package contest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validContest() Contest {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	return Contest{
		Name:        "Summer Giveaway",
		StartTime:   now,
		EndTime:     now.Add(24 * time.Hour),
		MinimumAge:  18,
		WinnerCount: 1,
	}
}

func TestValidateAcceptsMinimalValidContest(t *testing.T) {
	c := validContest()
	require.Empty(t, c.Validate())
}

func TestValidateRequiresName(t *testing.T) {
	c := validContest()
	c.Name = ""
	errs := c.Validate()
	require.Contains(t, errs, "name")
}

func TestValidateRequiresEndAfterStart(t *testing.T) {
	c := validContest()
	c.EndTime = c.StartTime
	errs := c.Validate()
	require.Contains(t, errs, "end_time")
}

func TestValidateRequiresMinimumAgeFloor(t *testing.T) {
	c := validContest()
	c.MinimumAge = 12
	errs := c.Validate()
	require.Contains(t, errs, "minimum_age")
}

func TestValidateWinnerCountBounds(t *testing.T) {
	c := validContest()
	c.WinnerCount = 0
	require.Contains(t, c.Validate(), "winner_count")

	c2 := validContest()
	c2.WinnerCount = 51
	require.Contains(t, c2.Validate(), "winner_count")
}

func TestValidatePrizeTiersMustMatchWinnerCount(t *testing.T) {
	c := validContest()
	c.WinnerCount = 2
	c.PrizeTiers = []PrizeTier{{Position: 1, Prize: "Gold"}}
	errs := c.Validate()
	require.Contains(t, errs, "prize_tiers")
}

func TestValidatePrizeTiersMustHaveUniquePositions(t *testing.T) {
	c := validContest()
	c.WinnerCount = 2
	c.PrizeTiers = []PrizeTier{{Position: 1, Prize: "Gold"}, {Position: 1, Prize: "Silver"}}
	errs := c.Validate()
	require.Contains(t, errs, "prize_tiers")
}

func TestValidatePrizeTiersPositionsWithinRange(t *testing.T) {
	c := validContest()
	c.WinnerCount = 1
	c.PrizeTiers = []PrizeTier{{Position: 2, Prize: "Gold"}}
	errs := c.Validate()
	require.Contains(t, errs, "prize_tiers")
}

func TestValidateRadiusTargetingRequiresCoordinates(t *testing.T) {
	c := validContest()
	c.LocationType = LocationTypeRadius
	errs := c.Validate()
	require.Contains(t, errs, "radius")

	lat, lon, miles := 37.0, -122.0, 50.0
	c.RadiusLatitude, c.RadiusLongitude, c.RadiusMiles = &lat, &lon, &miles
	require.NotContains(t, c.Validate(), "radius")
}

func TestValidateSpecificStatesRequiresSelectedStates(t *testing.T) {
	c := validContest()
	c.LocationType = LocationTypeSpecificStates
	errs := c.Validate()
	require.Contains(t, errs, "selected_states")

	c.SelectedStates = []string{"CA", "NY"}
	require.NotContains(t, c.Validate(), "selected_states")
}

func TestValidateOptionalCapsMustBePositiveWhenSet(t *testing.T) {
	zero := 0
	c := validContest()
	c.MaxEntriesPerPerson = &zero
	require.Contains(t, c.Validate(), "max_entries_per_person")

	c2 := validContest()
	c2.TotalEntryLimit = &zero
	require.Contains(t, c2.Validate(), "total_entry_limit")
}

func TestStatusIsWorkflowAuthoritative(t *testing.T) {
	authoritative := []Status{StatusDraft, StatusAwaitingApproval, StatusRejected, StatusCancelled, StatusComplete}
	for _, s := range authoritative {
		require.True(t, s.IsWorkflowAuthoritative(), "status %s", s)
	}

	derived := []Status{StatusUpcoming, StatusActive, StatusEnded}
	for _, s := range derived {
		require.False(t, s.IsWorkflowAuthoritative(), "status %s", s)
	}
}

func TestStatusValid(t *testing.T) {
	require.True(t, StatusDraft.Valid())
	require.False(t, Status("not_a_real_status").Valid())
}
