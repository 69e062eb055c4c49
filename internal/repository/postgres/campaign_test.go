package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infifrontend/SOAR-AI-V1/internal/campaign"
	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
)

func setupCampaignRepo(t *testing.T) (*CampaignRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCampaignRepo(db), mock
}

func TestCampaignGet(t *testing.T) {
	repo, mock := setupCampaignRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "name", "description", "status", "subject_line",
		"email_content", "cta_text", "cta_link",
		"scheduled_date", "sent_date",
		"emails_sent", "emails_opened", "emails_clicked", "target_count",
		"created_at", "updated_at",
	}).AddRow("c1", "Q3 Outreach", "", "draft", "Hi {{ contact_name }}",
		"<p>body</p>", "", "", nil, nil, 0, 0, 0, 0, now, now)

	mock.ExpectQuery(`SELECT id, name`).WithArgs("c1").WillReturnRows(rows)

	c, err := repo.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Q3 Outreach", c.Name)
	assert.Equal(t, domain.CampaignDraft, c.Status)
}

func TestCampaignGetNotFound(t *testing.T) {
	repo, mock := setupCampaignRepo(t)

	mock.ExpectQuery(`SELECT id, name`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestRecordLaunch(t *testing.T) {
	repo, mock := setupCampaignRepo(t)
	sentDate := time.Now()

	mock.ExpectExec(`UPDATE email_campaigns`).
		WithArgs("c1", 48, 50, sentDate).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordLaunch(context.Background(), "c1", 48, 50, sentDate)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLaunchMissingCampaign(t *testing.T) {
	repo, mock := setupCampaignRepo(t)

	mock.ExpectExec(`UPDATE email_campaigns`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RecordLaunch(context.Background(), "missing", 1, 1, time.Now())
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestUpdateEngagement(t *testing.T) {
	repo, mock := setupCampaignRepo(t)

	mock.ExpectExec(`UPDATE email_campaigns`).
		WithArgs("c1", 12, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateEngagement(context.Background(), "c1", 12, 4)
	require.NoError(t, err)
}
