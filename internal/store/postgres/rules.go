package postgres

import (
	"context"

	"github.com/open-builders/contestlet/internal/domain/contest"
)

func (s *Store) UpsertOfficialRules(ctx context.Context, r *contest.OfficialRules) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO official_rules (contest_id, eligibility_text, sponsor_name, prize_value_usd,
		                             start_date, end_date, terms_url, additional_terms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (contest_id) DO UPDATE SET
			eligibility_text = EXCLUDED.eligibility_text,
			sponsor_name     = EXCLUDED.sponsor_name,
			prize_value_usd  = EXCLUDED.prize_value_usd,
			start_date       = EXCLUDED.start_date,
			end_date         = EXCLUDED.end_date,
			terms_url        = EXCLUDED.terms_url,
			additional_terms = EXCLUDED.additional_terms`,
		r.ContestID, r.EligibilityText, r.SponsorName, r.PrizeValueUSD,
		r.StartDate, r.EndDate, r.TermsURL, r.AdditionalTerms,
	)
	return classifyErr(err)
}

func (s *Store) GetOfficialRules(ctx context.Context, contestID int64) (*contest.OfficialRules, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, contest_id, eligibility_text, sponsor_name, prize_value_usd,
		       start_date, end_date, terms_url, additional_terms
		FROM official_rules WHERE contest_id = $1`, contestID)
	var r contest.OfficialRules
	err := row.Scan(&r.ID, &r.ContestID, &r.EligibilityText, &r.SponsorName, &r.PrizeValueUSD,
		&r.StartDate, &r.EndDate, &r.TermsURL, &r.AdditionalTerms)
	if err != nil {
		return nil, classifyErr(err)
	}
	return &r, nil
}

func (s *Store) UpsertSmsTemplate(ctx context.Context, t *contest.SmsTemplate) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO sms_templates (contest_id, template_type, message_content)
		VALUES ($1, $2, $3)
		ON CONFLICT (contest_id, template_type) DO UPDATE SET
			message_content = EXCLUDED.message_content`,
		t.ContestID, t.TemplateType, t.MessageContent,
	)
	return classifyErr(err)
}

func (s *Store) GetSmsTemplate(ctx context.Context, contestID int64, templateType contest.TemplateType) (*contest.SmsTemplate, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, contest_id, template_type, message_content
		FROM sms_templates WHERE contest_id = $1 AND template_type = $2`, contestID, templateType)
	var t contest.SmsTemplate
	if err := row.Scan(&t.ID, &t.ContestID, &t.TemplateType, &t.MessageContent); err != nil {
		return nil, classifyErr(err)
	}
	return &t, nil
}

func (s *Store) listSmsTemplates(ctx context.Context, contestID int64) ([]contest.SmsTemplate, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, contest_id, template_type, message_content
		FROM sms_templates WHERE contest_id = $1`, contestID)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var out []contest.SmsTemplate
	for rows.Next() {
		var t contest.SmsTemplate
		if err := rows.Scan(&t.ID, &t.ContestID, &t.TemplateType, &t.MessageContent); err != nil {
			return nil, classifyErr(err)
		}
		out = append(out, t)
	}
	return out, classifyErr(rows.Err())
}
