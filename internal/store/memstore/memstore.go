// Package memstore is a thread-safe in-memory implementation of
// store.Store, grounded on the teacher pack's
// r3e-network-service_layer/internal/app/storage.Memory (a single struct
// holding maps per entity behind one mutex, used directly by service
// tests in place of a database). It exists for internal/contestsvc and
// internal/entrysvc tests: it is deliberately simple (no real isolation
// between concurrent transactions beyond a single global lock) and is
// not meant for production use.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/open-builders/contestlet/internal/domain/audit"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/store"
)

// Store is the in-memory store.Store implementation.
type Store struct {
	mu sync.Mutex

	nextUserID    int64
	nextSponsorID int64
	nextContestID int64
	nextEntryID   int64
	nextWinnerID  int64
	nextOtpID     int64

	users           map[int64]user.User
	usersByPhone    map[string]int64
	sponsorProfiles map[int64]user.SponsorProfile
	contests        map[int64]contest.Contest
	entries         map[int64]contest.Entry
	winners         map[int64]contest.Winner
	rules           map[int64]contest.OfficialRules
	templates       map[string]contest.SmsTemplate // key: contestID|templateType

	roleAudits     []audit.RoleAudit
	approvalAudits []audit.ContestApprovalAudit
	statusAudits   []audit.ContestStatusAudit
	notifications  []audit.Notification

	otpAttempts map[int64]store.OtpAttempt

	leaderHolder string
	leaderExpiry time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		nextUserID:    1,
		nextSponsorID: 1,
		nextContestID: 1,
		nextEntryID:   1,
		nextWinnerID:  1,
		nextOtpID:     1,

		users:           make(map[int64]user.User),
		usersByPhone:    make(map[string]int64),
		sponsorProfiles: make(map[int64]user.SponsorProfile),
		contests:        make(map[int64]contest.Contest),
		entries:         make(map[int64]contest.Entry),
		winners:         make(map[int64]contest.Winner),
		rules:           make(map[int64]contest.OfficialRules),
		templates:       make(map[string]contest.SmsTemplate),
		otpAttempts:     make(map[int64]store.OtpAttempt),
	}
}

// WithTx runs fn against the same store; rollback is implemented by
// snapshotting and restoring mutable state on error, which is sufficient
// for the single-goroutine service tests this store backs.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	snapshot := s.clone()
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.restore(snapshot)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) clone() *Store {
	cp := &Store{
		nextUserID: s.nextUserID, nextSponsorID: s.nextSponsorID, nextContestID: s.nextContestID,
		nextEntryID: s.nextEntryID, nextWinnerID: s.nextWinnerID, nextOtpID: s.nextOtpID,
		users:           cloneMap(s.users),
		usersByPhone:    cloneMap(s.usersByPhone),
		sponsorProfiles: cloneMap(s.sponsorProfiles),
		contests:        cloneMap(s.contests),
		entries:         cloneMap(s.entries),
		winners:         cloneMap(s.winners),
		rules:           cloneMap(s.rules),
		templates:       cloneMap(s.templates),
		otpAttempts:     cloneMap(s.otpAttempts),
		roleAudits:      append([]audit.RoleAudit(nil), s.roleAudits...),
		approvalAudits:  append([]audit.ContestApprovalAudit(nil), s.approvalAudits...),
		statusAudits:    append([]audit.ContestStatusAudit(nil), s.statusAudits...),
		notifications:   append([]audit.Notification(nil), s.notifications...),
		leaderHolder:    s.leaderHolder,
		leaderExpiry:    s.leaderExpiry,
	}
	return cp
}

func (s *Store) restore(snap *Store) {
	s.nextUserID, s.nextSponsorID, s.nextContestID = snap.nextUserID, snap.nextSponsorID, snap.nextContestID
	s.nextEntryID, s.nextWinnerID, s.nextOtpID = snap.nextEntryID, snap.nextWinnerID, snap.nextOtpID
	s.users, s.usersByPhone = snap.users, snap.usersByPhone
	s.sponsorProfiles = snap.sponsorProfiles
	s.contests, s.entries, s.winners = snap.contests, snap.entries, snap.winners
	s.rules, s.templates = snap.rules, snap.templates
	s.otpAttempts = snap.otpAttempts
	s.roleAudits, s.approvalAudits = snap.roleAudits, snap.approvalAudits
	s.statusAudits, s.notifications = snap.statusAudits, snap.notifications
	s.leaderHolder, s.leaderExpiry = snap.leaderHolder, snap.leaderExpiry
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	cp := make(map[K]V, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// --- Users ---

func (s *Store) GetUserByPhone(_ context.Context, phone string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByPhone[phone]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) CreateUser(_ context.Context, u *user.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByPhone[u.Phone]; exists {
		return 0, store.ErrConflict
	}
	id := s.nextUserID
	s.nextUserID++
	u.ID = id
	u.CreatedAt = time.Now().UTC()
	s.users[id] = *u
	s.usersByPhone[u.Phone] = id
	return id, nil
}

func (s *Store) UpdateUserProfile(_ context.Context, userID int64, p user.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Profile = p
	s.users[userID] = u
	return nil
}

func (s *Store) AssignRole(_ context.Context, userID int64, newRole user.Role, changedBy *int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	old := u.Role
	now := time.Now().UTC()
	u.Role = newRole
	u.RoleAssignedAt = &now
	u.RoleAssignedBy = changedBy
	s.users[userID] = u
	s.roleAudits = append(s.roleAudits, audit.RoleAudit{
		ID: int64(len(s.roleAudits) + 1), UserID: userID, OldRole: string(old), NewRole: string(newRole),
		ChangedBy: changedBy, Reason: reason, At: now,
	})
	return nil
}

// --- Sponsor profiles ---

func (s *Store) GetSponsorProfileByID(_ context.Context, id int64) (*user.SponsorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.sponsorProfiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sp, nil
}

func (s *Store) GetSponsorProfileByUserID(_ context.Context, userID int64) (*user.SponsorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.sponsorProfiles {
		if sp.UserID == userID {
			cp := sp
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateSponsorProfile(_ context.Context, sp *user.SponsorProfile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSponsorID
	s.nextSponsorID++
	sp.ID = id
	now := time.Now().UTC()
	sp.CreatedAt, sp.UpdatedAt = now, now
	s.sponsorProfiles[id] = *sp
	return id, nil
}

// --- Contests ---

func (s *Store) GetContestByID(_ context.Context, id int64) (*contest.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) LoadContestWithRelations(_ context.Context, id int64, rel store.ContestRelations) (*store.ContestAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	agg := &store.ContestAggregate{Contest: c}
	if rel.Rules {
		if r, ok := s.rules[id]; ok {
			rc := r
			agg.Rules = &rc
		}
	}
	if rel.Templates {
		for _, t := range s.templates {
			if t.ContestID == id {
				agg.Templates = append(agg.Templates, t)
			}
		}
	}
	if rel.Entries {
		for _, e := range s.entries {
			if e.ContestID == id {
				agg.Entries = append(agg.Entries, e)
			}
		}
	}
	if rel.Winners {
		for _, w := range s.winners {
			if w.ContestID == id {
				agg.Winners = append(agg.Winners, w)
			}
		}
	}
	sort.Slice(agg.Winners, func(i, j int) bool { return agg.Winners[i].WinnerPosition < agg.Winners[j].WinnerPosition })
	return agg, nil
}

func (s *Store) InsertContest(_ context.Context, c *contest.Contest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextContestID
	s.nextContestID++
	c.ID = id
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.contests[id] = *c
	return id, nil
}

func (s *Store) UpdateContest(_ context.Context, c *contest.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[c.ID]; !ok {
		return store.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	s.contests[c.ID] = *c
	return nil
}

func (s *Store) ListByStatus(_ context.Context, filter store.ContestFilter, page store.Page) ([]contest.Contest, store.PageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make(map[contest.Status]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[st] = true
	}
	var matched []contest.Contest
	for _, c := range s.contests {
		if len(statuses) > 0 && !statuses[c.Status] {
			continue
		}
		if filter.CreatorID != nil && c.CreatedByUserID != *filter.CreatorID {
			continue
		}
		matched = append(matched, c)
	}
	return paginate(matched, page)
}

func (s *Store) ListByCreator(_ context.Context, creatorID int64, page store.Page) ([]contest.Contest, store.PageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []contest.Contest
	for _, c := range s.contests {
		if c.CreatedByUserID == creatorID {
			matched = append(matched, c)
		}
	}
	return paginate(matched, page)
}

func (s *Store) ListPublic(_ context.Context, page store.Page) ([]contest.Contest, store.PageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []contest.Contest
	for _, c := range s.contests {
		switch c.Status {
		case contest.StatusUpcoming, contest.StatusActive, contest.StatusEnded, contest.StatusComplete:
			matched = append(matched, c)
		}
	}
	return paginate(matched, page)
}

func paginate(items []contest.Contest, page store.Page) ([]contest.Contest, store.PageInfo, error) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	total := len(items)
	size := page.Size
	if size <= 0 {
		size = 10
	}
	start := (page.Number - 1) * size
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	totalPages := (total + size - 1) / size
	info := store.PageInfo{
		Page: page.Number, Size: size, Total: total, TotalPages: totalPages,
		HasNext: page.Number < totalPages, HasPrev: page.Number > 1,
	}
	return items[start:end], info, nil
}

func (s *Store) LockForUpdate(_ context.Context, id int64) (*contest.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) DeleteContest(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.contests, id)
	delete(s.rules, id)
	for tk, t := range s.templates {
		if t.ContestID == id {
			delete(s.templates, tk)
		}
	}
	for eid, e := range s.entries {
		if e.ContestID == id {
			delete(s.entries, eid)
		}
	}
	for wid, w := range s.winners {
		if w.ContestID == id {
			delete(s.winners, wid)
		}
	}
	return nil
}

func (s *Store) EntryCountForContest(ctx context.Context, contestID int64) (int, error) {
	return s.CountForContest(ctx, contestID)
}

// --- Entries ---

func (s *Store) CountForContest(_ context.Context, contestID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.ContestID == contestID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountForContestAndUser(_ context.Context, contestID, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.ContestID == contestID && e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetEntryByContestAndUser(_ context.Context, contestID, userID int64) (*contest.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ContestID == contestID && e.UserID == userID {
			cp := e
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertEntry(_ context.Context, e *contest.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Source == contest.EntrySourceSelf {
		for _, existing := range s.entries {
			if existing.ContestID == e.ContestID && existing.UserID == e.UserID && existing.Source == contest.EntrySourceSelf {
				return 0, store.ErrConflict
			}
		}
	}
	id := s.nextEntryID
	s.nextEntryID++
	e.ID = id
	e.CreatedAt = time.Now().UTC()
	if e.Status == "" {
		e.Status = contest.EntryStatusActive
	}
	s.entries[id] = *e
	return id, nil
}

func (s *Store) ListActiveEntries(_ context.Context, contestID int64) ([]contest.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contest.Entry
	for _, e := range s.entries {
		if e.ContestID == contestID && e.Status == contest.EntryStatusActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetEntryStatus(_ context.Context, entryID int64, status contest.EntryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return store.ErrNotFound
	}
	e.Status = status
	s.entries[entryID] = e
	return nil
}

// --- Winners ---

func (s *Store) InsertWinner(_ context.Context, w *contest.Winner) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.winners {
		if existing.ContestID == w.ContestID && existing.WinnerPosition == w.WinnerPosition {
			return 0, store.ErrConflict
		}
		if existing.ContestID == w.ContestID && existing.EntryID == w.EntryID {
			return 0, store.ErrConflict
		}
	}
	id := s.nextWinnerID
	s.nextWinnerID++
	w.ID = id
	w.SelectedAt = time.Now().UTC()
	s.winners[id] = *w
	return id, nil
}

func (s *Store) DeleteWinnerByPosition(_ context.Context, contestID int64, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.winners {
		if w.ContestID == contestID && w.WinnerPosition == position {
			delete(s.winners, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListWinnersByContest(_ context.Context, contestID int64) ([]contest.Winner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contest.Winner
	for _, w := range s.winners {
		if w.ContestID == contestID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WinnerPosition < out[j].WinnerPosition })
	return out, nil
}

func (s *Store) SetWinnerNotified(_ context.Context, winnerID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.winners[winnerID]
	if !ok {
		return store.ErrNotFound
	}
	w.NotifiedAt = &at
	s.winners[winnerID] = w
	return nil
}

// --- Rules & templates ---

func (s *Store) UpsertOfficialRules(_ context.Context, r *contest.OfficialRules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rules[r.ContestID]; ok {
		r.ID = existing.ID
	} else {
		r.ID = int64(len(s.rules) + 1)
	}
	s.rules[r.ContestID] = *r
	return nil
}

func (s *Store) GetOfficialRules(_ context.Context, contestID int64) (*contest.OfficialRules, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[contestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func templateKey(contestID int64, t contest.TemplateType) string {
	return fmt.Sprintf("%d|%s", contestID, t)
}

func (s *Store) UpsertSmsTemplate(_ context.Context, t *contest.SmsTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := templateKey(t.ContestID, t.TemplateType)
	if existing, ok := s.templates[key]; ok {
		t.ID = existing.ID
	} else {
		t.ID = int64(len(s.templates) + 1)
	}
	s.templates[key] = *t
	return nil
}

func (s *Store) GetSmsTemplate(_ context.Context, contestID int64, templateType contest.TemplateType) (*contest.SmsTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[templateKey(contestID, templateType)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

// --- Audit ---

func (s *Store) InsertRoleAudit(_ context.Context, a *audit.RoleAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.roleAudits) + 1)
	a.At = time.Now().UTC()
	s.roleAudits = append(s.roleAudits, *a)
	return nil
}

func (s *Store) InsertApprovalAudit(_ context.Context, a *audit.ContestApprovalAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.approvalAudits) + 1)
	a.At = time.Now().UTC()
	s.approvalAudits = append(s.approvalAudits, *a)
	return nil
}

func (s *Store) InsertStatusAudit(_ context.Context, a *audit.ContestStatusAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.statusAudits) + 1)
	a.At = time.Now().UTC()
	s.statusAudits = append(s.statusAudits, *a)
	return nil
}

func (s *Store) InsertNotification(_ context.Context, n *audit.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = int64(len(s.notifications) + 1)
	n.SentAt = time.Now().UTC()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Store) ListStatusAuditByContest(_ context.Context, contestID int64) ([]audit.ContestStatusAudit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.ContestStatusAudit
	for _, a := range s.statusAudits {
		if a.ContestID == contestID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListApprovalAuditByContest(_ context.Context, contestID int64) ([]audit.ContestApprovalAudit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.ContestApprovalAudit
	for _, a := range s.approvalAudits {
		if a.ContestID == contestID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- OTP ---

func (s *Store) InsertOtpAttempt(_ context.Context, phone, codeHash string, issuedAt, expiresAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextOtpID
	s.nextOtpID++
	s.otpAttempts[id] = store.OtpAttempt{
		ID: id, Phone: phone, CodeHash: codeHash, IssuedAt: issuedAt, ExpiresAt: expiresAt,
	}
	return id, nil
}

func (s *Store) MostRecentUnconsumedOtp(_ context.Context, phone string) (*store.OtpAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *store.OtpAttempt
	for _, a := range s.otpAttempts {
		if a.Phone != phone || a.Consumed {
			continue
		}
		if best == nil || a.IssuedAt.After(best.IssuedAt) {
			cp := a
			best = &cp
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (s *Store) IncrementOtpAttempts(_ context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.otpAttempts[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	a.Attempts++
	s.otpAttempts[id] = a
	return a.Attempts, nil
}

func (s *Store) ConsumeOtpAttempt(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.otpAttempts[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Consumed = true
	s.otpAttempts[id] = a
	return nil
}

// --- Scheduler ---

func (s *Store) AcquireLeader(_ context.Context, holderID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if s.leaderHolder == "" || s.leaderHolder == holderID || now.After(s.leaderExpiry) {
		s.leaderHolder = holderID
		s.leaderExpiry = now.Add(ttl)
		return true, nil
	}
	return false, nil
}

func (s *Store) ReleaseLeader(_ context.Context, holderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leaderHolder == holderID {
		s.leaderHolder = ""
	}
	return nil
}

func (s *Store) ListUpcomingPastStart(_ context.Context, now time.Time) ([]contest.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contest.Contest
	for _, c := range s.contests {
		if c.Status == contest.StatusUpcoming && !c.StartTime.After(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListActivePastEnd(_ context.Context, now time.Time) ([]contest.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contest.Contest
	for _, c := range s.contests {
		if c.Status == contest.StatusActive && !c.EndTime.After(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListEndedAwaitingScheduledWinners(_ context.Context) ([]contest.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contest.Contest
	for _, c := range s.contests {
		if c.Status != contest.StatusEnded || c.WinnerSelectionMethod != contest.WinnerSelectionScheduled || c.WinnerCount == 0 {
			continue
		}
		hasWinners := false
		for _, w := range s.winners {
			if w.ContestID == c.ID {
				hasWinners = true
				break
			}
		}
		if !hasWinners {
			out = append(out, c)
		}
	}
	return out, nil
}
