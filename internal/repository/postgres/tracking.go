package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Infifrontend/SOAR-AI-V1/internal/campaign"
	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
	"github.com/Infifrontend/SOAR-AI-V1/internal/tracking"
)

// TrackingRepo implements the tracking store interfaces against PostgreSQL:
// find-or-create for the injector, atomic event application for ingestion,
// and the aggregate queries for the stats refresh.
type TrackingRepo struct{ db *sql.DB }

// NewTrackingRepo creates a Postgres-backed tracking repository.
func NewTrackingRepo(db *sql.DB) *TrackingRepo { return &TrackingRepo{db: db} }

const trackingColumns = `
	id, campaign_id, lead_id, token, email_sent,
	first_opened, last_opened, open_count,
	first_clicked, last_clicked, click_count,
	COALESCE(user_agent,''), COALESCE(ip_address,'')`

// FindOrCreate returns the tracking record for a (campaign, lead) pair,
// creating it with a fresh token when absent. The no-op conflict update
// makes RETURNING yield the existing row, so the whole operation is one
// statement and safe under concurrent launches.
func (r *TrackingRepo) FindOrCreate(ctx context.Context, campaignID, recipientID string) (*domain.TrackingRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO email_tracking (id, campaign_id, lead_id, token, open_count, click_count, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, NOW())
		ON CONFLICT (campaign_id, lead_id)
		DO UPDATE SET campaign_id = EXCLUDED.campaign_id
		RETURNING`+trackingColumns,
		uuid.NewString(), campaignID, recipientID, uuid.NewString())

	rec, err := scanTracking(row)
	if err != nil {
		return nil, fmt.Errorf("find or create tracking record: %w", err)
	}
	return rec, nil
}

// MarkSent stamps the record after a successful transport call.
func (r *TrackingRepo) MarkSent(ctx context.Context, trackingID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_tracking SET email_sent = NOW() WHERE id = $1
	`, trackingID)
	if err != nil {
		return fmt.Errorf("mark tracking record sent: %w", err)
	}
	return nil
}

// RecordOpen applies one open event in a single statement. The in-database
// arithmetic keeps concurrent opens from losing increments.
func (r *TrackingRepo) RecordOpen(ctx context.Context, ev tracking.Event) (string, error) {
	var campaignID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE email_tracking
		SET first_opened = COALESCE(first_opened, $2),
		    last_opened = $2,
		    open_count = open_count + 1,
		    user_agent = $3,
		    ip_address = $4
		WHERE token = $1
		RETURNING campaign_id
	`, ev.Token, ev.At, ev.UserAgent, ev.IPAddress).Scan(&campaignID)
	if err == sql.ErrNoRows {
		return "", tracking.ErrUnknownToken
	}
	if err != nil {
		return "", fmt.Errorf("record open: %w", err)
	}
	return campaignID, nil
}

// RecordClick applies one click event in a single statement.
func (r *TrackingRepo) RecordClick(ctx context.Context, ev tracking.Event) (string, error) {
	var campaignID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE email_tracking
		SET first_clicked = COALESCE(first_clicked, $2),
		    last_clicked = $2,
		    click_count = click_count + 1,
		    user_agent = $3,
		    ip_address = $4
		WHERE token = $1
		RETURNING campaign_id
	`, ev.Token, ev.At, ev.UserAgent, ev.IPAddress).Scan(&campaignID)
	if err == sql.ErrNoRows {
		return "", tracking.ErrUnknownToken
	}
	if err != nil {
		return "", fmt.Errorf("record click: %w", err)
	}
	return campaignID, nil
}

// Aggregate computes the engagement rollup for one campaign.
func (r *TrackingRepo) Aggregate(ctx context.Context, campaignID string) (campaign.EngagementAggregate, error) {
	var agg campaign.EngagementAggregate
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE open_count > 0),
		       COUNT(*) FILTER (WHERE click_count > 0),
		       COALESCE(SUM(open_count), 0),
		       COALESCE(SUM(click_count), 0)
		FROM email_tracking
		WHERE campaign_id = $1
	`, campaignID).Scan(&agg.UniqueOpens, &agg.UniqueClicks, &agg.TotalOpens, &agg.TotalClicks)
	if err != nil {
		return agg, fmt.Errorf("aggregate tracking records: %w", err)
	}
	return agg, nil
}

// ListByCampaign returns all tracking rows for a campaign, newest activity
// first.
func (r *TrackingRepo) ListByCampaign(ctx context.Context, campaignID string) ([]domain.TrackingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+trackingColumns+`
		FROM email_tracking
		WHERE campaign_id = $1
		ORDER BY last_opened DESC NULLS LAST, created_at DESC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list tracking records: %w", err)
	}
	defer rows.Close()

	var out []domain.TrackingRecord
	for rows.Next() {
		rec, err := scanTracking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracking record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTracking(row rowScanner) (*domain.TrackingRecord, error) {
	rec := &domain.TrackingRecord{}
	var token string
	err := row.Scan(
		&rec.ID, &rec.CampaignID, &rec.RecipientID, &token, &rec.EmailSent,
		&rec.FirstOpened, &rec.LastOpened, &rec.OpenCount,
		&rec.FirstClicked, &rec.LastClicked, &rec.ClickCount,
		&rec.UserAgent, &rec.IPAddress,
	)
	if err != nil {
		return nil, err
	}
	rec.Token, err = uuid.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("malformed token %q: %w", token, err)
	}
	return rec, nil
}
