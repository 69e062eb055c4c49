package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrackingRecord is the per-(campaign, recipient) engagement row keyed by a
// globally unique token. Exactly one record exists per pair; the injector
// creates it via find-or-create at dispatch time and only event ingestion
// mutates it afterwards.
//
// Invariants: OpenCount and ClickCount never decrease; FirstOpened <=
// LastOpened whenever both are set, and likewise for clicks.
type TrackingRecord struct {
	ID          string    `json:"id" db:"id"`
	CampaignID  string    `json:"campaign_id" db:"campaign_id"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	Token       uuid.UUID `json:"token" db:"token"`

	EmailSent    *time.Time `json:"email_sent" db:"email_sent"`
	FirstOpened  *time.Time `json:"first_opened" db:"first_opened"`
	LastOpened   *time.Time `json:"last_opened" db:"last_opened"`
	OpenCount    int        `json:"open_count" db:"open_count"`
	FirstClicked *time.Time `json:"first_clicked" db:"first_clicked"`
	LastClicked  *time.Time `json:"last_clicked" db:"last_clicked"`
	ClickCount   int        `json:"click_count" db:"click_count"`

	// Best-effort client fingerprint, overwritten on every event.
	UserAgent string `json:"user_agent" db:"user_agent"`
	IPAddress string `json:"ip_address" db:"ip_address"`
}

// Opened reports whether the recipient opened the email at least once.
func (t *TrackingRecord) Opened() bool { return t.OpenCount > 0 }

// Clicked reports whether the recipient clicked a link at least once.
func (t *TrackingRecord) Clicked() bool { return t.ClickCount > 0 }
