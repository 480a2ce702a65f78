package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))), mock
}

func TestGetUserByPhone_ScansRow(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "phone", "role", "is_verified", "full_name", "email", "bio", "timezone",
		"timezone_auto_detect", "created_at", "role_assigned_at", "role_assigned_by",
	}).AddRow(int64(1), "+15550001111", "user", true, "Jane Doe", "jane@example.com", "", "America/New_York", true, time.Now(), nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone = $1")).
		WithArgs("+15550001111").
		WillReturnRows(rows)

	u, err := s.GetUserByPhone(ctx, "+15550001111")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.True(t, u.IsVerified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByPhone_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone = $1")).
		WithArgs("+15559998888").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetUserByPhone(ctx, "+15559998888")
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_ReturnsGeneratedID(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("+15550001111", user.RoleUser, false, "", "", "", "", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := s.CreateUser(ctx, &user.User{Phone: "+15550001111", Role: user.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A unique_violation from Postgres (phone already registered) is
// classified as store.ErrConflict, not surfaced as a raw driver error.
func TestCreateUser_DuplicatePhoneIsConflict(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("+15550001111", user.RoleUser, false, "", "", "", "", false).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	_, err := s.CreateUser(ctx, &user.User{Phone: "+15550001111", Role: user.RoleUser})
	assert.ErrorIs(t, err, store.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserProfile_NoRowsAffectedIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET full_name")).
		WithArgs(int64(99), "", "", "", "", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateUserProfile(ctx, 99, user.Profile{})
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// AssignRole reads the prior role, applies the update, and writes a
// RoleAudit row, all against the same querier (so it composes correctly
// inside WithTx).
func TestAssignRole_WritesAuditRow(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("user"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2")).
		WithArgs(int64(7), user.RoleSponsor, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO role_audit")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	changedBy := int64(1)
	err := s.AssignRole(ctx, 7, user.RoleSponsor, &changedBy, "promoted to sponsor")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// AcquireLeader's compare-and-swap UPDATE succeeds directly when the
// caller already holds the lease, without falling through to the
// insert-then-reread path.
func TestAcquireLeader_RenewsExistingLease(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduler_leader")).
		WithArgs(schedulerLeaderID, "scheduler-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.AcquireLeader(ctx, "scheduler-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

// When the CAS affects no rows (lease held by someone else, or no row
// yet), AcquireLeader falls back to an idempotent insert and re-reads
// the current holder to decide the result.
func TestAcquireLeader_FallsBackToInsertWhenNoRowYet(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduler_leader")).
		WithArgs(schedulerLeaderID, "scheduler-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduler_leader")).
		WithArgs(schedulerLeaderID, "scheduler-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT holder_id FROM scheduler_leader")).
		WithArgs(schedulerLeaderID).
		WillReturnRows(sqlmock.NewRows([]string{"holder_id"}).AddRow("scheduler-1"))

	ok, err := s.AcquireLeader(ctx, "scheduler-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseLeader_ClearsLeaseForHolder(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduler_leader SET lease_until")).
		WithArgs(schedulerLeaderID, "scheduler-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.ReleaseLeader(ctx, "scheduler-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

// A serialization failure (Postgres code 40001) is recognized so WithTx
// knows to retry rather than surfacing it as a generic dependency error.
func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, isSerializationFailure(&pq.Error{Code: "40001"}))
	assert.False(t, isSerializationFailure(&pq.Error{Code: "23505"}))
	assert.False(t, isSerializationFailure(store.ErrConflict))
}
