// Package auditlog fronts the Store's append-only audit tables
// (SPEC_FULL.md §4.11) with typed writer/reader methods, generalized
// from the teacher's inline `UpdateStatusAtomic(..., reason)` calls in
// expiration_service.go into an explicit, reusable audit writer that
// every mutating service calls within its own transaction.
package auditlog

import (
	"context"

	"github.com/open-builders/contestlet/internal/domain/audit"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/store"
)

// Log wraps a store.Tx (or store.Store) so callers can write an audit
// row as part of their own transaction without importing store types
// directly.
type Log struct {
	tx store.Store
}

func New(tx store.Store) *Log { return &Log{tx: tx} }

func (l *Log) RecordStatusChange(ctx context.Context, contestID int64, old, new contest.Status, by *int64, actorRole string, reasonCode audit.ReasonCode, reason string) error {
	return l.tx.InsertStatusAudit(ctx, &audit.ContestStatusAudit{
		ContestID:  contestID,
		OldStatus:  string(old),
		NewStatus:  string(new),
		By:         by,
		ActorRole:  actorRole,
		ReasonCode: reasonCode,
		Reason:     reason,
	})
}

func (l *Log) RecordApproval(ctx context.Context, contestID int64, action audit.ApprovalAction, by int64, reason string) error {
	return l.tx.InsertApprovalAudit(ctx, &audit.ContestApprovalAudit{
		ContestID: contestID,
		Action:    action,
		By:        by,
		Reason:    reason,
	})
}

func (l *Log) RecordRoleChange(ctx context.Context, userID int64, oldRole, newRole string, changedBy *int64, reason string) error {
	return l.tx.InsertRoleAudit(ctx, &audit.RoleAudit{
		UserID:    userID,
		OldRole:   oldRole,
		NewRole:   newRole,
		ChangedBy: changedBy,
		Reason:    reason,
	})
}

func (l *Log) StatusHistory(ctx context.Context, contestID int64) ([]audit.ContestStatusAudit, error) {
	return l.tx.ListStatusAuditByContest(ctx, contestID)
}

func (l *Log) ApprovalHistory(ctx context.Context, contestID int64) ([]audit.ContestApprovalAudit, error) {
	return l.tx.ListApprovalAuditByContest(ctx, contestID)
}
