// Package contest holds the central Contest aggregate and its owned
// entities (spec.md §3): OfficialRules, SmsTemplate, ContestWinner, Entry.
package contest

import "time"

// Status is the persisted workflow/lifecycle status of a Contest. Note
// that "published" is never a member of this enum; public visibility is
// decided from the effective status computed by internal/statusengine,
// via authz.IsPubliclyReadable (spec.md §4.6, DESIGN.md OQ2).
type Status string

const (
	StatusDraft             Status = "draft"
	StatusAwaitingApproval  Status = "awaiting_approval"
	StatusRejected          Status = "rejected"
	StatusUpcoming          Status = "upcoming"
	StatusActive            Status = "active"
	StatusEnded             Status = "ended"
	StatusComplete          Status = "complete"
	StatusCancelled         Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusAwaitingApproval, StatusRejected, StatusUpcoming,
		StatusActive, StatusEnded, StatusComplete, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsWorkflowAuthoritative reports whether s is one of the statuses the status
// engine treats as authoritative without re-deriving from the clock
// (spec.md §4.6: draft, awaiting_approval, rejected, cancelled, complete).
func (s Status) IsWorkflowAuthoritative() bool {
	switch s {
	case StatusDraft, StatusAwaitingApproval, StatusRejected, StatusCancelled, StatusComplete:
		return true
	default:
		return false
	}
}

type ContestType string

const (
	ContestTypeGeneral     ContestType = "general"
	ContestTypeSweepstakes ContestType = "sweepstakes"
	ContestTypeInstantWin  ContestType = "instant_win"
)

type EntryMethod string

const (
	EntryMethodSMS     EntryMethod = "sms"
	EntryMethodEmail   EntryMethod = "email"
	EntryMethodWebForm EntryMethod = "web_form"
)

type WinnerSelectionMethod string

const (
	WinnerSelectionRandom    WinnerSelectionMethod = "random"
	WinnerSelectionScheduled WinnerSelectionMethod = "scheduled"
	WinnerSelectionInstant   WinnerSelectionMethod = "instant"
)

type LocationType string

const (
	LocationTypeUnitedStates   LocationType = "united_states"
	LocationTypeSpecificStates LocationType = "specific_states"
	LocationTypeRadius         LocationType = "radius"
	LocationTypeCustom         LocationType = "custom"
)

// PrizeTier pairs a winner position with its prize description.
type PrizeTier struct {
	Position int
	Prize    string
}

// Contest is the central entity of the lifecycle engine (spec.md §3).
type Contest struct {
	ID                 int64
	CreatedByUserID    int64
	SponsorProfileID   int64

	Name               string
	Description        string
	PrizeDescription   string
	ImageURL           string
	SponsorURL         string
	Location           string
	Tags               []string
	PromotionChannels  []string
	ConsolationOffer   string

	StartTime time.Time
	EndTime   time.Time

	ContestType           ContestType
	EntryMethod            EntryMethod
	WinnerSelectionMethod  WinnerSelectionMethod
	MinimumAge             int
	MaxEntriesPerPerson    *int
	TotalEntryLimit        *int
	WinnerCount            int
	PrizeTiers             []PrizeTier

	LocationType     LocationType
	SelectedStates   []string
	RadiusAddress    string
	RadiusLatitude   *float64
	RadiusLongitude  *float64
	RadiusMiles      *float64

	Status            Status
	SubmittedAt       *time.Time
	ApprovedAt        *time.Time
	ApprovedByUserID  *int64
	RejectedAt        *time.Time
	RejectionReason   string
	ApprovalMessage   string

	WinnerEntryID     *int64
	WinnerSelectedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryCount is populated by the store on reads that need it; it is not a
// persisted column on contests (it is derived via COUNT(entries)).
type WithCounts struct {
	Contest
	EntryCount int
}

// OfficialRules is mandatory before a Contest may leave draft (spec.md §3).
type OfficialRules struct {
	ID               int64
	ContestID        int64
	EligibilityText  string
	SponsorName      string
	PrizeValueUSD    float64
	StartDate        time.Time
	EndDate          time.Time
	TermsURL         string
	AdditionalTerms  string
}

type TemplateType string

const (
	TemplateEntryConfirmation  TemplateType = "entry_confirmation"
	TemplateWinnerNotification TemplateType = "winner_notification"
	TemplateNonWinner          TemplateType = "non_winner"
)

// SmsTemplate holds sponsor-configured copy for a notification type.
type SmsTemplate struct {
	ID             int64
	ContestID      int64
	TemplateType   TemplateType
	MessageContent string
}

// EntryStatus is the lifecycle of a single Entry.
type EntryStatus string

const (
	EntryStatusActive        EntryStatus = "active"
	EntryStatusWinner        EntryStatus = "winner"
	EntryStatusDisqualified  EntryStatus = "disqualified"
)

// EntrySource records how an Entry was created.
type EntrySource string

const (
	EntrySourceSelf        EntrySource = "self"
	EntrySourceManualAdmin EntrySource = "manual_admin"
	EntrySourcePhoneCall   EntrySource = "phone_call"
	EntrySourceEvent       EntrySource = "event"
)

// Entry represents one participant's admission into a Contest.
type Entry struct {
	ID              int64
	ContestID       int64
	UserID          int64
	CreatedAt       time.Time
	Status          EntryStatus
	Source          EntrySource
	CreatedByAdminID *int64
	AdminNotes      string
}

// Winner records a position-unique prize assignment (spec.md §3).
type Winner struct {
	ID               int64
	ContestID        int64
	WinnerPosition   int
	EntryID          int64
	SelectedAt       time.Time
	NotifiedAt       *time.Time
	ClaimedAt        *time.Time
	PrizeDescription string
}

// Validate checks the invariants of spec.md §3 that can be checked without
// a database round trip (uniqueness of prize tier positions, end>start,
// winner_count bounds, age floor). Cross-row invariants (entry_count <=
// total_entry_limit, winner uniqueness against persisted rows) are
// enforced by internal/contestsvc and internal/entrysvc against the Store.
func (c *Contest) Validate() map[string]string {
	fields := map[string]string{}

	if c.Name == "" {
		fields["name"] = "name is required"
	}
	if !c.EndTime.After(c.StartTime) {
		fields["end_time"] = "end_time must be after start_time"
	}
	if c.MinimumAge < 13 {
		fields["minimum_age"] = "minimum_age must be >= 13"
	}
	if c.WinnerCount < 1 || c.WinnerCount > 50 {
		fields["winner_count"] = "winner_count must be between 1 and 50"
	}
	if c.MaxEntriesPerPerson != nil && *c.MaxEntriesPerPerson < 1 {
		fields["max_entries_per_person"] = "must be >= 1 when set"
	}
	if c.TotalEntryLimit != nil && *c.TotalEntryLimit < 1 {
		fields["total_entry_limit"] = "must be >= 1 when set"
	}
	if len(c.PrizeTiers) > 0 {
		if len(c.PrizeTiers) != c.WinnerCount {
			fields["prize_tiers"] = "prize_tiers length must equal winner_count"
		} else {
			seen := make(map[int]bool, len(c.PrizeTiers))
			for _, t := range c.PrizeTiers {
				if t.Position < 1 || t.Position > c.WinnerCount {
					fields["prize_tiers"] = "prize_tiers positions must be within 1..winner_count"
					break
				}
				if seen[t.Position] {
					fields["prize_tiers"] = "prize_tiers positions must be unique"
					break
				}
				seen[t.Position] = true
			}
		}
	}
	switch c.LocationType {
	case LocationTypeUnitedStates, LocationTypeSpecificStates, LocationTypeRadius, LocationTypeCustom, "":
	default:
		fields["location_type"] = "invalid location_type"
	}
	if c.LocationType == LocationTypeRadius {
		if c.RadiusLatitude == nil || c.RadiusLongitude == nil || c.RadiusMiles == nil {
			fields["radius"] = "radius_latitude, radius_longitude, and radius_miles are required for radius targeting"
		}
	}
	if c.LocationType == LocationTypeSpecificStates && len(c.SelectedStates) == 0 {
		fields["selected_states"] = "selected_states is required for specific_states targeting"
	}

	return fields
}
