package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign represents an outbound email campaign: its templates, optional
// call-to-action, and the summary counters maintained by the dispatcher and
// the stats aggregator.
type Campaign struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Description  string         `json:"description" db:"description"`
	Status       CampaignStatus `json:"status" db:"status"`
	SubjectLine  string         `json:"subject_line" db:"subject_line"`
	EmailContent string         `json:"email_content" db:"email_content"`
	CTAText      string         `json:"cta_text" db:"cta_text"`
	CTALink      string         `json:"cta_link" db:"cta_link"`

	ScheduledDate *time.Time `json:"scheduled_date" db:"scheduled_date"`
	SentDate      *time.Time `json:"sent_date" db:"sent_date"`

	// Summary counters. EmailsSent and TargetCount are written by the
	// dispatcher on launch; EmailsOpened and EmailsClicked are unique
	// engagement counts refreshed by the stats aggregator.
	EmailsSent    int `json:"emails_sent" db:"emails_sent"`
	EmailsOpened  int `json:"emails_opened" db:"emails_opened"`
	EmailsClicked int `json:"emails_clicked" db:"emails_clicked"`
	TargetCount   int `json:"target_count" db:"target_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CampaignStats is a point-in-time aggregation over a campaign's tracking
// records. Rates are percentages rounded to two decimals and zero-guarded.
type CampaignStats struct {
	CampaignID      string  `json:"campaign_id"`
	EmailsSent      int     `json:"emails_sent"`
	UniqueOpens     int     `json:"unique_opens"`
	UniqueClicks    int     `json:"unique_clicks"`
	TotalOpens      int     `json:"total_opens"`
	TotalClicks     int     `json:"total_clicks"`
	OpenRate        float64 `json:"open_rate"`
	ClickRate       float64 `json:"click_rate"`
	ClickToOpenRate float64 `json:"click_to_open_rate"`
}
