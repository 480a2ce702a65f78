package postgres

import (
	"context"
	"database/sql"

	"github.com/open-builders/contestlet/internal/domain/audit"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/store"
)

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*user.User, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, phone, role, is_verified, full_name, email, bio, timezone,
		       timezone_auto_detect, created_at, role_assigned_at, role_assigned_by
		FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, phone, role, is_verified, full_name, email, bio, timezone,
		       timezone_auto_detect, created_at, role_assigned_at, role_assigned_by
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Phone, &u.Role, &u.IsVerified, &u.Profile.FullName,
		&u.Profile.Email, &u.Profile.Bio, &u.Profile.Timezone, &u.Profile.TimezoneAutoDetect,
		&u.CreatedAt, &u.RoleAssignedAt, &u.RoleAssignedBy)
	if err != nil {
		return nil, classifyErr(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO users (phone, role, is_verified, full_name, email, bio, timezone, timezone_auto_detect)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		u.Phone, u.Role, u.IsVerified, u.Profile.FullName, u.Profile.Email,
		u.Profile.Bio, u.Profile.Timezone, u.Profile.TimezoneAutoDetect,
	).Scan(&id)
	if err != nil {
		return 0, classifyErr(err)
	}
	return id, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, userID int64, p user.Profile) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE users SET full_name = $2, email = $3, bio = $4, timezone = $5, timezone_auto_detect = $6
		WHERE id = $1`, userID, p.FullName, p.Email, p.Bio, p.Timezone, p.TimezoneAutoDetect)
	if err != nil {
		return classifyErr(err)
	}
	return requireRowsAffected(res)
}

func (s *Store) AssignRole(ctx context.Context, userID int64, newRole user.Role, changedBy *int64, reason string) error {
	var oldRole string
	if err := s.q.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&oldRole); err != nil {
		return classifyErr(err)
	}

	res, err := s.q.ExecContext(ctx, `
		UPDATE users SET role = $2, role_assigned_at = now(), role_assigned_by = $3
		WHERE id = $1`, userID, newRole, changedBy)
	if err != nil {
		return classifyErr(err)
	}
	if err := requireRowsAffected(res); err != nil {
		return err
	}

	return s.InsertRoleAudit(ctx, &audit.RoleAudit{
		UserID:    userID,
		OldRole:   oldRole,
		NewRole:   string(newRole),
		ChangedBy: changedBy,
		Reason:    reason,
	})
}

func (s *Store) GetSponsorProfileByID(ctx context.Context, id int64) (*user.SponsorProfile, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, user_id, company_name, website_url, logo_url, contact_email,
		       contact_phone, industry, description, is_verified, created_at, updated_at
		FROM sponsor_profiles WHERE id = $1`, id)
	return scanSponsorProfile(row)
}

func (s *Store) GetSponsorProfileByUserID(ctx context.Context, userID int64) (*user.SponsorProfile, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, user_id, company_name, website_url, logo_url, contact_email,
		       contact_phone, industry, description, is_verified, created_at, updated_at
		FROM sponsor_profiles WHERE user_id = $1`, userID)
	return scanSponsorProfile(row)
}

func scanSponsorProfile(row *sql.Row) (*user.SponsorProfile, error) {
	var sp user.SponsorProfile
	err := row.Scan(&sp.ID, &sp.UserID, &sp.CompanyName, &sp.WebsiteURL, &sp.LogoURL,
		&sp.ContactEmail, &sp.ContactPhone, &sp.Industry, &sp.Description, &sp.IsVerified,
		&sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, classifyErr(err)
	}
	return &sp, nil
}

func (s *Store) CreateSponsorProfile(ctx context.Context, sp *user.SponsorProfile) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO sponsor_profiles (user_id, company_name, website_url, logo_url,
		                               contact_email, contact_phone, industry, description, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		sp.UserID, sp.CompanyName, sp.WebsiteURL, sp.LogoURL, sp.ContactEmail,
		sp.ContactPhone, sp.Industry, sp.Description, sp.IsVerified,
	).Scan(&id)
	if err != nil {
		return 0, classifyErr(err)
	}
	return id, nil
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classifyErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
