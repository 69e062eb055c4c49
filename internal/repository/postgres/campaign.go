// Package postgres implements the persistence interfaces against
// PostgreSQL via database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Infifrontend/SOAR-AI-V1/internal/campaign"
	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description,''), status, subject_line,
		       COALESCE(email_content,''), COALESCE(cta_text,''), COALESCE(cta_link,''),
		       scheduled_date, sent_date,
		       emails_sent, emails_opened, emails_clicked, target_count,
		       created_at, updated_at
		FROM email_campaigns
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Description, &c.Status, &c.SubjectLine,
		&c.EmailContent, &c.CTAText, &c.CTALink,
		&c.ScheduledDate, &c.SentDate,
		&c.EmailsSent, &c.EmailsOpened, &c.EmailsClicked, &c.TargetCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// RecordLaunch writes the launch outcome: send counters, the active status,
// and the sent date.
func (r *CampaignRepo) RecordLaunch(ctx context.Context, id string, emailsSent, targetCount int, sentDate time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_campaigns
		SET emails_sent = $2, target_count = $3, status = 'active',
		    sent_date = $4, updated_at = NOW()
		WHERE id = $1
	`, id, emailsSent, targetCount, sentDate)
	if err != nil {
		return fmt.Errorf("record launch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record launch: %w", err)
	}
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

// UpdateEngagement writes back the unique open/click counters computed by
// the stats aggregator.
func (r *CampaignRepo) UpdateEngagement(ctx context.Context, id string, uniqueOpens, uniqueClicks int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_campaigns
		SET emails_opened = $2, emails_clicked = $3, updated_at = NOW()
		WHERE id = $1
	`, id, uniqueOpens, uniqueClicks)
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}
