package domain

import (
	"fmt"
	"time"
)

// DispatchStatus classifies the outcome of one recipient in a dispatch pass.
type DispatchStatus string

const (
	DispatchSent   DispatchStatus = "sent"
	DispatchFailed DispatchStatus = "failed"
)

// DispatchResult is the ephemeral per-recipient outcome of a dispatch pass.
// It is aggregated into a DispatchReport and never persisted.
type DispatchResult struct {
	RecipientID string         `json:"recipient_id"`
	Email       string         `json:"email"`
	Status      DispatchStatus `json:"status"`
	Reason      string         `json:"reason,omitempty"`
}

// DispatchReport summarizes one launch of a campaign.
type DispatchReport struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	EmailsSent  int              `json:"emails_sent"`
	FailedCount int              `json:"failed_count"`
	Attempted   int              `json:"total_processed"`
	SuccessRate string           `json:"success_rate"`
	Results     []DispatchResult `json:"results,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Finalize fills the derived fields from the accumulated results.
func (r *DispatchReport) Finalize() {
	r.Attempted = len(r.Results)
	r.EmailsSent = 0
	r.FailedCount = 0
	for _, res := range r.Results {
		if res.Status == DispatchSent {
			r.EmailsSent++
		} else {
			r.FailedCount++
		}
	}
	if r.Attempted > 0 {
		r.SuccessRate = fmt.Sprintf("%.1f%%", float64(r.EmailsSent)/float64(r.Attempted)*100)
	} else {
		r.SuccessRate = "0%"
	}
	r.CompletedAt = time.Now()
}
