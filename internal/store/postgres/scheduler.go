package postgres

import (
	"context"
	"time"
)

// schedulerLeaderID is the single row this table ever holds; the
// scheduler is a single-leader loop (SPEC_FULL.md §4.10), not a
// per-contest lock table like the teacher's AcquireLock/ReleaseLock.
const schedulerLeaderID = "contest_scheduler"

// AcquireLeader implements the same compare-and-swap lease pattern as
// the teacher's in-memory AcquireLock, backed by a single Postgres row
// instead of a sync.Map so it holds across process restarts and
// multiple replicas.
func (s *Store) AcquireLeader(ctx context.Context, holderID string, ttl time.Duration) (bool, error) {
	now := s.clock.Now()
	leaseUntil := now.Add(ttl)

	res, err := s.q.ExecContext(ctx, `
		UPDATE scheduler_leader
		SET holder_id = $2, lease_until = $3
		WHERE id = $1 AND (holder_id = $2 OR lease_until < $4)`,
		schedulerLeaderID, holderID, leaseUntil, now)
	if err != nil {
		return false, classifyErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classifyErr(err)
	}
	if n > 0 {
		return true, nil
	}

	// No row yet, or the lease is held by someone else and still live.
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO scheduler_leader (id, holder_id, lease_until)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		schedulerLeaderID, holderID, leaseUntil)
	if err != nil {
		return false, classifyErr(err)
	}

	var currentHolder string
	err = s.q.QueryRowContext(ctx, `SELECT holder_id FROM scheduler_leader WHERE id = $1`, schedulerLeaderID).
		Scan(&currentHolder)
	if err != nil {
		return false, classifyErr(err)
	}
	return currentHolder == holderID, nil
}

func (s *Store) ReleaseLeader(ctx context.Context, holderID string) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE scheduler_leader SET lease_until = $3
		WHERE id = $1 AND holder_id = $2`,
		schedulerLeaderID, holderID, s.clock.Now())
	return classifyErr(err)
}
