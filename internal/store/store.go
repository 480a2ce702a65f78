// Package store defines the transactional persistence abstraction (spec.md
// §4.1) that every service depends on. internal/store/postgres provides
// the production implementation; tests may supply an in-memory fake.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/open-builders/contestlet/internal/domain/audit"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
)

// Sentinel store-level errors. Services translate these into apperrors
// Kinds; the store itself never imports apperrors (it has no notion of
// HTTP or service-level semantics).
var (
	// ErrUnavailable is retriable: connection drop, deadlock, timeout.
	ErrUnavailable = errors.New("store: unavailable")
	// ErrConflict is non-retriable: unique violation, optimistic
	// concurrency failure, serialization failure after the internal
	// retry budget in WithTx is exhausted.
	ErrConflict = errors.New("store: conflict")
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
)

// Page is a pagination request; Size is clamped by callers to
// config.MaxPageSize before reaching the store.
type Page struct {
	Number int // 1-based
	Size   int
}

// PageInfo describes a paginated result.
type PageInfo struct {
	Page       int
	Size       int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// ContestRelations controls which owned collections LoadWithRelations
// populates, per the "no lazy side effects" re-architecture note in
// spec.md §9.
type ContestRelations struct {
	Entries   bool
	Rules     bool
	Templates bool
	Winners   bool
}

// ContestFilter narrows ListByStatus / ListPublic queries.
type ContestFilter struct {
	Statuses  []contest.Status
	CreatorID *int64
	Search    string
}

// Tx is the subset of *sql.Tx the service layer needs; it lets Store
// implementations other than Postgres (e.g. an in-memory test double)
// satisfy the same WithTx contract without depending on database/sql.
type Tx interface {
	// Store returns a Store bound to this transaction: every method call
	// on it participates in the same transaction as the caller's other
	// work within WithTx's callback.
	Store
}

// Store is the full persistence surface (spec.md §4.1).
type Store interface {
	// WithTx runs fn inside a transaction, rolling back on any error
	// returned by fn (or on panic) and committing otherwise. Transient
	// failures opening the transaction surface as ErrUnavailable.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Users
	GetUserByPhone(ctx context.Context, phone string) (*user.User, error)
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) (int64, error)
	UpdateUserProfile(ctx context.Context, userID int64, p user.Profile) error
	// AssignRole updates a user's role and writes a RoleAudit row in the
	// same transaction (spec.md §4.1).
	AssignRole(ctx context.Context, userID int64, newRole user.Role, changedBy *int64, reason string) error

	// Sponsor profiles
	GetSponsorProfileByID(ctx context.Context, id int64) (*user.SponsorProfile, error)
	GetSponsorProfileByUserID(ctx context.Context, userID int64) (*user.SponsorProfile, error)
	CreateSponsorProfile(ctx context.Context, sp *user.SponsorProfile) (int64, error)

	// Contests
	GetContestByID(ctx context.Context, id int64) (*contest.Contest, error)
	LoadContestWithRelations(ctx context.Context, id int64, rel ContestRelations) (*ContestAggregate, error)
	InsertContest(ctx context.Context, c *contest.Contest) (int64, error)
	UpdateContest(ctx context.Context, c *contest.Contest) error
	ListByStatus(ctx context.Context, filter ContestFilter, page Page) ([]contest.Contest, PageInfo, error)
	ListByCreator(ctx context.Context, creatorID int64, page Page) ([]contest.Contest, PageInfo, error)
	// ListPublic returns contests whose effective status (computed by the
	// caller's statusengine, not the store) is in effectiveStatuses. The
	// store filters on persisted status as a pre-filter and the caller
	// re-checks effective status; see internal/contestsvc.
	ListPublic(ctx context.Context, page Page) ([]contest.Contest, PageInfo, error)
	// LockForUpdate acquires a row lock on the contest for the duration
	// of the enclosing transaction (spec.md §4.1, §5). Only meaningful
	// when called through a Tx obtained from WithTx.
	LockForUpdate(ctx context.Context, id int64) (*contest.Contest, error)
	DeleteContest(ctx context.Context, id int64) error
	EntryCountForContest(ctx context.Context, contestID int64) (int, error)

	// Entries
	CountForContest(ctx context.Context, contestID int64) (int, error)
	CountForContestAndUser(ctx context.Context, contestID, userID int64) (int, error)
	GetEntryByContestAndUser(ctx context.Context, contestID, userID int64) (*contest.Entry, error)
	InsertEntry(ctx context.Context, e *contest.Entry) (int64, error)
	ListActiveEntries(ctx context.Context, contestID int64) ([]contest.Entry, error)
	SetEntryStatus(ctx context.Context, entryID int64, status contest.EntryStatus) error

	// Winners
	InsertWinner(ctx context.Context, w *contest.Winner) (int64, error)
	DeleteWinnerByPosition(ctx context.Context, contestID int64, position int) error
	ListWinnersByContest(ctx context.Context, contestID int64) ([]contest.Winner, error)
	SetWinnerNotified(ctx context.Context, winnerID int64, at time.Time) error

	// Rules & templates
	UpsertOfficialRules(ctx context.Context, r *contest.OfficialRules) error
	GetOfficialRules(ctx context.Context, contestID int64) (*contest.OfficialRules, error)
	UpsertSmsTemplate(ctx context.Context, t *contest.SmsTemplate) error
	GetSmsTemplate(ctx context.Context, contestID int64, templateType contest.TemplateType) (*contest.SmsTemplate, error)

	// Audit (append-only)
	InsertRoleAudit(ctx context.Context, a *audit.RoleAudit) error
	InsertApprovalAudit(ctx context.Context, a *audit.ContestApprovalAudit) error
	InsertStatusAudit(ctx context.Context, a *audit.ContestStatusAudit) error
	InsertNotification(ctx context.Context, n *audit.Notification) error
	ListStatusAuditByContest(ctx context.Context, contestID int64) ([]audit.ContestStatusAudit, error)
	ListApprovalAuditByContest(ctx context.Context, contestID int64) ([]audit.ContestApprovalAudit, error)

	// OTP
	InsertOtpAttempt(ctx context.Context, phone, codeHash string, issuedAt, expiresAt time.Time) (int64, error)
	MostRecentUnconsumedOtp(ctx context.Context, phone string) (*OtpAttempt, error)
	IncrementOtpAttempts(ctx context.Context, id int64) (int, error)
	ConsumeOtpAttempt(ctx context.Context, id int64) error

	// Scheduler leader election (spec.md §4.10, §5): AcquireLeader
	// returns true if this process holds the lock (or renewed it),
	// false if another holder is live.
	AcquireLeader(ctx context.Context, holderID string, ttl time.Duration) (bool, error)
	ReleaseLeader(ctx context.Context, holderID string) error

	// Scheduler queries: contests whose persisted status needs a
	// time-driven transition check this tick.
	ListUpcomingPastStart(ctx context.Context, now time.Time) ([]contest.Contest, error)
	ListActivePastEnd(ctx context.Context, now time.Time) ([]contest.Contest, error)
	ListEndedAwaitingScheduledWinners(ctx context.Context) ([]contest.Contest, error)
}

// ContestAggregate is the owned-relations load produced by
// LoadContestWithRelations (spec.md §9 "no lazy side effects").
type ContestAggregate struct {
	Contest   contest.Contest
	Rules     *contest.OfficialRules
	Templates []contest.SmsTemplate
	Entries   []contest.Entry
	Winners   []contest.Winner
}

// OtpAttempt mirrors the OtpAttempt table (spec.md §3); Code is the
// persisted hash, not the plaintext code.
type OtpAttempt struct {
	ID         int64
	Phone      string
	CodeHash   string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Consumed   bool
	Attempts   int
}
