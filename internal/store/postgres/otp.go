package postgres

import (
	"context"
	"time"

	"github.com/open-builders/contestlet/internal/store"
)

func (s *Store) InsertOtpAttempt(ctx context.Context, phone, codeHash string, issuedAt, expiresAt time.Time) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO otp_attempts (phone, code_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, phone, codeHash, issuedAt, expiresAt,
	).Scan(&id)
	if err != nil {
		return 0, classifyErr(err)
	}
	return id, nil
}

// MostRecentUnconsumedOtp returns the newest unconsumed OTP row for phone,
// locked for the duration of the enclosing transaction so a concurrent
// verify can't race the increment in IncrementOtpAttempts.
func (s *Store) MostRecentUnconsumedOtp(ctx context.Context, phone string) (*store.OtpAttempt, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, phone, code_hash, issued_at, expires_at, consumed, attempts
		FROM otp_attempts
		WHERE phone = $1 AND consumed = FALSE
		ORDER BY issued_at DESC
		LIMIT 1
		FOR UPDATE`, phone)

	var a store.OtpAttempt
	err := row.Scan(&a.ID, &a.Phone, &a.CodeHash, &a.IssuedAt, &a.ExpiresAt, &a.Consumed, &a.Attempts)
	if err != nil {
		return nil, classifyErr(err)
	}
	return &a, nil
}

func (s *Store) IncrementOtpAttempts(ctx context.Context, id int64) (int, error) {
	var attempts int
	err := s.q.QueryRowContext(ctx, `
		UPDATE otp_attempts SET attempts = attempts + 1 WHERE id = $1
		RETURNING attempts`, id,
	).Scan(&attempts)
	if err != nil {
		return 0, classifyErr(err)
	}
	return attempts, nil
}

func (s *Store) ConsumeOtpAttempt(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE otp_attempts SET consumed = TRUE WHERE id = $1`, id)
	if err != nil {
		return classifyErr(err)
	}
	return requireRowsAffected(res)
}
