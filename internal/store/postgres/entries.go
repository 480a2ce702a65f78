package postgres

import (
	"context"
	"time"

	"github.com/open-builders/contestlet/internal/domain/contest"
)

func (s *Store) CountForContest(ctx context.Context, contestID int64) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT count(*) FROM entries WHERE contest_id = $1 AND status != 'disqualified'`, contestID).Scan(&n)
	if err != nil {
		return 0, classifyErr(err)
	}
	return n, nil
}

func (s *Store) CountForContestAndUser(ctx context.Context, contestID, userID int64) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT count(*) FROM entries
		WHERE contest_id = $1 AND user_id = $2 AND status != 'disqualified'`, contestID, userID).Scan(&n)
	if err != nil {
		return 0, classifyErr(err)
	}
	return n, nil
}

func (s *Store) GetEntryByContestAndUser(ctx context.Context, contestID, userID int64) (*contest.Entry, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, contest_id, user_id, created_at, status, source, created_by_admin_id, admin_notes
		FROM entries WHERE contest_id = $1 AND user_id = $2 AND source = 'self'`, contestID, userID)
	return scanEntry(row)
}

func scanEntry(row rowScanner) (*contest.Entry, error) {
	var e contest.Entry
	err := row.Scan(&e.ID, &e.ContestID, &e.UserID, &e.CreatedAt, &e.Status, &e.Source,
		&e.CreatedByAdminID, &e.AdminNotes)
	if err != nil {
		return nil, classifyErr(err)
	}
	return &e, nil
}

func (s *Store) InsertEntry(ctx context.Context, e *contest.Entry) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO entries (contest_id, user_id, status, source, created_by_admin_id, admin_notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		e.ContestID, e.UserID, e.Status, e.Source, e.CreatedByAdminID, e.AdminNotes,
	).Scan(&id)
	if err != nil {
		return 0, classifyErr(err)
	}
	return id, nil
}

func (s *Store) ListActiveEntries(ctx context.Context, contestID int64) ([]contest.Entry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, contest_id, user_id, created_at, status, source, created_by_admin_id, admin_notes
		FROM entries WHERE contest_id = $1 AND status != 'disqualified'
		ORDER BY created_at ASC`, contestID)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var out []contest.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, classifyErr(rows.Err())
}

func (s *Store) SetEntryStatus(ctx context.Context, entryID int64, status contest.EntryStatus) error {
	res, err := s.q.ExecContext(ctx, `UPDATE entries SET status = $2 WHERE id = $1`, entryID, status)
	if err != nil {
		return classifyErr(err)
	}
	return requireRowsAffected(res)
}

func (s *Store) InsertWinner(ctx context.Context, w *contest.Winner) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO contest_winners (contest_id, winner_position, entry_id, prize_description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		w.ContestID, w.WinnerPosition, w.EntryID, w.PrizeDescription,
	).Scan(&id)
	if err != nil {
		return 0, classifyErr(err)
	}
	return id, nil
}

func (s *Store) DeleteWinnerByPosition(ctx context.Context, contestID int64, position int) error {
	res, err := s.q.ExecContext(ctx, `
		DELETE FROM contest_winners WHERE contest_id = $1 AND winner_position = $2`, contestID, position)
	if err != nil {
		return classifyErr(err)
	}
	return requireRowsAffected(res)
}

func (s *Store) ListWinnersByContest(ctx context.Context, contestID int64) ([]contest.Winner, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, contest_id, winner_position, entry_id, selected_at, notified_at, claimed_at, prize_description
		FROM contest_winners WHERE contest_id = $1 ORDER BY winner_position ASC`, contestID)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var out []contest.Winner
	for rows.Next() {
		var w contest.Winner
		if err := rows.Scan(&w.ID, &w.ContestID, &w.WinnerPosition, &w.EntryID,
			&w.SelectedAt, &w.NotifiedAt, &w.ClaimedAt, &w.PrizeDescription); err != nil {
			return nil, classifyErr(err)
		}
		out = append(out, w)
	}
	return out, classifyErr(rows.Err())
}

func (s *Store) SetWinnerNotified(ctx context.Context, winnerID int64, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `UPDATE contest_winners SET notified_at = $2 WHERE id = $1`, winnerID, at)
	if err != nil {
		return classifyErr(err)
	}
	return requireRowsAffected(res)
}
