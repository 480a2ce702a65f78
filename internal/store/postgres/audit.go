package postgres

import (
	"context"

	"github.com/open-builders/contestlet/internal/domain/audit"
)

func (s *Store) InsertRoleAudit(ctx context.Context, a *audit.RoleAudit) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO role_audit (user_id, old_role, new_role, changed_by, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		a.UserID, a.OldRole, a.NewRole, a.ChangedBy, a.Reason,
	)
	return classifyErr(err)
}

func (s *Store) InsertApprovalAudit(ctx context.Context, a *audit.ContestApprovalAudit) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO contest_approval_audit (contest_id, action, by, reason)
		VALUES ($1, $2, $3, $4)`,
		a.ContestID, a.Action, a.By, a.Reason,
	)
	return classifyErr(err)
}

func (s *Store) InsertStatusAudit(ctx context.Context, a *audit.ContestStatusAudit) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO contest_status_audit (contest_id, old_status, new_status, by, actor_role, reason_code, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ContestID, a.OldStatus, a.NewStatus, a.By, a.ActorRole, a.ReasonCode, a.Reason,
	)
	return classifyErr(err)
}

func (s *Store) InsertNotification(ctx context.Context, n *audit.Notification) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO notifications (user_id, contest_id, template_type, phone, body,
		                            success, suppressed, error, provider_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.UserID, n.ContestID, n.TemplateType, n.Phone, n.Body,
		n.Success, n.Suppressed, n.Error, n.ProviderMessageID,
	)
	return classifyErr(err)
}

func (s *Store) ListStatusAuditByContest(ctx context.Context, contestID int64) ([]audit.ContestStatusAudit, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, contest_id, old_status, new_status, by, actor_role, reason_code, reason, at
		FROM contest_status_audit WHERE contest_id = $1 ORDER BY at ASC`, contestID)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var out []audit.ContestStatusAudit
	for rows.Next() {
		var a audit.ContestStatusAudit
		if err := rows.Scan(&a.ID, &a.ContestID, &a.OldStatus, &a.NewStatus, &a.By,
			&a.ActorRole, &a.ReasonCode, &a.Reason, &a.At); err != nil {
			return nil, classifyErr(err)
		}
		out = append(out, a)
	}
	return out, classifyErr(rows.Err())
}

func (s *Store) ListApprovalAuditByContest(ctx context.Context, contestID int64) ([]audit.ContestApprovalAudit, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, contest_id, action, by, reason, at
		FROM contest_approval_audit WHERE contest_id = $1 ORDER BY at ASC`, contestID)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var out []audit.ContestApprovalAudit
	for rows.Next() {
		var a audit.ContestApprovalAudit
		if err := rows.Scan(&a.ID, &a.ContestID, &a.Action, &a.By, &a.Reason, &a.At); err != nil {
			return nil, classifyErr(err)
		}
		out = append(out, a)
	}
	return out, classifyErr(rows.Err())
}
