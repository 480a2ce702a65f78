package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/store"
)

const contestColumns = `
	id, created_by_user_id, sponsor_profile_id, name, description, prize_description,
	image_url, sponsor_url, location, tags, promotion_channels, consolation_offer,
	start_time, end_time, contest_type, entry_method, winner_selection_method,
	minimum_age, max_entries_per_person, total_entry_limit, winner_count, prize_tiers,
	location_type, selected_states, radius_address, radius_latitude, radius_longitude,
	radius_miles, status, submitted_at, approved_at, approved_by_user_id, rejected_at,
	rejection_reason, approval_message, winner_entry_id, winner_selected_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContest(row rowScanner) (*contest.Contest, error) {
	var c contest.Contest
	var tiersJSON []byte
	err := row.Scan(
		&c.ID, &c.CreatedByUserID, &c.SponsorProfileID, &c.Name, &c.Description, &c.PrizeDescription,
		&c.ImageURL, &c.SponsorURL, &c.Location, pq.Array(&c.Tags), pq.Array(&c.PromotionChannels), &c.ConsolationOffer,
		&c.StartTime, &c.EndTime, &c.ContestType, &c.EntryMethod, &c.WinnerSelectionMethod,
		&c.MinimumAge, &c.MaxEntriesPerPerson, &c.TotalEntryLimit, &c.WinnerCount, &tiersJSON,
		&c.LocationType, pq.Array(&c.SelectedStates), &c.RadiusAddress, &c.RadiusLatitude, &c.RadiusLongitude,
		&c.RadiusMiles, &c.Status, &c.SubmittedAt, &c.ApprovedAt, &c.ApprovedByUserID, &c.RejectedAt,
		&c.RejectionReason, &c.ApprovalMessage, &c.WinnerEntryID, &c.WinnerSelectedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, classifyErr(err)
	}
	if len(tiersJSON) > 0 {
		if err := json.Unmarshal(tiersJSON, &c.PrizeTiers); err != nil {
			return nil, classifyErr(err)
		}
	}
	return &c, nil
}

func (s *Store) GetContestByID(ctx context.Context, id int64) (*contest.Contest, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+contestColumns+` FROM contests WHERE id = $1`, id)
	return scanContest(row)
}

// LockForUpdate is only meaningful inside a transaction begun via WithTx;
// Postgres otherwise releases the row lock as soon as the implicit
// single-statement transaction commits.
func (s *Store) LockForUpdate(ctx context.Context, id int64) (*contest.Contest, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+contestColumns+` FROM contests WHERE id = $1 FOR UPDATE`, id)
	return scanContest(row)
}

func (s *Store) InsertContest(ctx context.Context, c *contest.Contest) (int64, error) {
	tiersJSON, err := json.Marshal(c.PrizeTiers)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.q.QueryRowContext(ctx, `
		INSERT INTO contests (
			created_by_user_id, sponsor_profile_id, name, description, prize_description,
			image_url, sponsor_url, location, tags, promotion_channels, consolation_offer,
			start_time, end_time, contest_type, entry_method, winner_selection_method,
			minimum_age, max_entries_per_person, total_entry_limit, winner_count, prize_tiers,
			location_type, selected_states, radius_address, radius_latitude, radius_longitude,
			radius_miles, status, submitted_at, approved_at, approved_by_user_id, rejected_at,
			rejection_reason, approval_message, winner_entry_id, winner_selected_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,
			$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36
		) RETURNING id`,
		c.CreatedByUserID, c.SponsorProfileID, c.Name, c.Description, c.PrizeDescription,
		c.ImageURL, c.SponsorURL, c.Location, pq.Array(c.Tags), pq.Array(c.PromotionChannels), c.ConsolationOffer,
		c.StartTime, c.EndTime, c.ContestType, c.EntryMethod, c.WinnerSelectionMethod,
		c.MinimumAge, c.MaxEntriesPerPerson, c.TotalEntryLimit, c.WinnerCount, tiersJSON,
		c.LocationType, pq.Array(c.SelectedStates), c.RadiusAddress, c.RadiusLatitude, c.RadiusLongitude,
		c.RadiusMiles, c.Status, c.SubmittedAt, c.ApprovedAt, c.ApprovedByUserID, c.RejectedAt,
		c.RejectionReason, c.ApprovalMessage, c.WinnerEntryID, c.WinnerSelectedAt,
	).Scan(&id)
	if err != nil {
		return 0, classifyErr(err)
	}
	return id, nil
}

func (s *Store) UpdateContest(ctx context.Context, c *contest.Contest) error {
	tiersJSON, err := json.Marshal(c.PrizeTiers)
	if err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE contests SET
			name = $2, description = $3, prize_description = $4, image_url = $5, sponsor_url = $6,
			location = $7, tags = $8, promotion_channels = $9, consolation_offer = $10,
			start_time = $11, end_time = $12, contest_type = $13, entry_method = $14,
			winner_selection_method = $15, minimum_age = $16, max_entries_per_person = $17,
			total_entry_limit = $18, winner_count = $19, prize_tiers = $20,
			location_type = $21, selected_states = $22, radius_address = $23, radius_latitude = $24,
			radius_longitude = $25, radius_miles = $26, status = $27, submitted_at = $28,
			approved_at = $29, approved_by_user_id = $30, rejected_at = $31, rejection_reason = $32,
			approval_message = $33, winner_entry_id = $34, winner_selected_at = $35, updated_at = now()
		WHERE id = $1`,
		c.ID, c.Name, c.Description, c.PrizeDescription, c.ImageURL, c.SponsorURL,
		c.Location, pq.Array(c.Tags), pq.Array(c.PromotionChannels), c.ConsolationOffer,
		c.StartTime, c.EndTime, c.ContestType, c.EntryMethod,
		c.WinnerSelectionMethod, c.MinimumAge, c.MaxEntriesPerPerson,
		c.TotalEntryLimit, c.WinnerCount, tiersJSON,
		c.LocationType, pq.Array(c.SelectedStates), c.RadiusAddress, c.RadiusLatitude,
		c.RadiusLongitude, c.RadiusMiles, c.Status, c.SubmittedAt,
		c.ApprovedAt, c.ApprovedByUserID, c.RejectedAt, c.RejectionReason,
		c.ApprovalMessage, c.WinnerEntryID, c.WinnerSelectedAt,
	)
	if err != nil {
		return classifyErr(err)
	}
	return requireRowsAffected(res)
}

func (s *Store) DeleteContest(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM contests WHERE id = $1`, id)
	if err != nil {
		return classifyErr(err)
	}
	return requireRowsAffected(res)
}

func (s *Store) EntryCountForContest(ctx context.Context, contestID int64) (int, error) {
	return s.CountForContest(ctx, contestID)
}

func (s *Store) ListByStatus(ctx context.Context, filter store.ContestFilter, page store.Page) ([]contest.Contest, store.PageInfo, error) {
	var statuses []string
	if len(filter.Statuses) > 0 {
		statuses = make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
	}
	return s.listContests(ctx, `
		WHERE ($1::text[] IS NULL OR status = ANY($1))
		  AND ($2::bigint IS NULL OR created_by_user_id = $2)
		  AND ($3 = '' OR name ILIKE '%' || $3 || '%')`,
		[]interface{}{pq.Array(statuses), filter.CreatorID, filter.Search}, page)
}

func (s *Store) ListByCreator(ctx context.Context, creatorID int64, page store.Page) ([]contest.Contest, store.PageInfo, error) {
	return s.listContests(ctx, `WHERE created_by_user_id = $1`, []interface{}{creatorID}, page)
}

// ListPublic returns contests in any status the public listing cares
// about; internal/contestsvc re-derives and re-filters by effective
// status since this is a persisted-status pre-filter only.
func (s *Store) ListPublic(ctx context.Context, page store.Page) ([]contest.Contest, store.PageInfo, error) {
	return s.listContests(ctx, `
		WHERE status IN ('upcoming','active','ended','complete')`, nil, page)
}

func (s *Store) listContests(ctx context.Context, where string, whereArgs []interface{}, page store.Page) ([]contest.Contest, store.PageInfo, error) {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 {
		page.Size = 10
	}
	offset := (page.Number - 1) * page.Size

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT count(*) FROM contests `+where, whereArgs...).Scan(&total); err != nil {
		return nil, store.PageInfo{}, classifyErr(err)
	}

	args := append(append([]interface{}{}, whereArgs...), page.Size, offset)
	limitParam := len(whereArgs) + 1
	offsetParam := len(whereArgs) + 2
	query := `SELECT ` + contestColumns + ` FROM contests ` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(limitParam) + ` OFFSET $` + strconv.Itoa(offsetParam)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.PageInfo{}, classifyErr(err)
	}
	defer rows.Close()

	var out []contest.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, store.PageInfo{}, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, store.PageInfo{}, classifyErr(err)
	}

	totalPages := (total + page.Size - 1) / page.Size
	info := store.PageInfo{
		Page: page.Number, Size: page.Size, Total: total, TotalPages: totalPages,
		HasNext: page.Number < totalPages, HasPrev: page.Number > 1,
	}
	return out, info, nil
}

func (s *Store) ListUpcomingPastStart(ctx context.Context, now time.Time) ([]contest.Contest, error) {
	return s.listContestsSimple(ctx, `WHERE status = 'upcoming' AND start_time <= $1`, now)
}

func (s *Store) ListActivePastEnd(ctx context.Context, now time.Time) ([]contest.Contest, error) {
	return s.listContestsSimple(ctx, `WHERE status = 'active' AND end_time <= $1`, now)
}

func (s *Store) ListEndedAwaitingScheduledWinners(ctx context.Context) ([]contest.Contest, error) {
	return s.listContestsSimple(ctx, `
		WHERE status = 'ended' AND winner_selection_method = 'scheduled' AND winner_entry_id IS NULL`)
}

func (s *Store) listContestsSimple(ctx context.Context, where string, args ...interface{}) ([]contest.Contest, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+contestColumns+` FROM contests `+where, args...)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var out []contest.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, classifyErr(rows.Err())
}

func (s *Store) LoadContestWithRelations(ctx context.Context, id int64, rel store.ContestRelations) (*store.ContestAggregate, error) {
	c, err := s.GetContestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	agg := &store.ContestAggregate{Contest: *c}

	if rel.Rules {
		rules, err := s.GetOfficialRules(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			agg.Rules = rules
		}
	}
	if rel.Templates {
		tpls, err := s.listSmsTemplates(ctx, id)
		if err != nil {
			return nil, err
		}
		agg.Templates = tpls
	}
	if rel.Entries {
		entries, err := s.ListActiveEntries(ctx, id)
		if err != nil {
			return nil, err
		}
		agg.Entries = entries
	}
	if rel.Winners {
		winners, err := s.ListWinnersByContest(ctx, id)
		if err != nil {
			return nil, err
		}
		agg.Winners = winners
	}
	return agg, nil
}

