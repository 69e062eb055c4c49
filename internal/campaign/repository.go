package campaign

import (
	"context"
	"time"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// RecordLaunch writes the dispatcher's final counters after a launch:
	// emails_sent, target_count, status=active, sent_date.
	RecordLaunch(ctx context.Context, id string, emailsSent, targetCount int, sentDate time.Time) error

	// UpdateEngagement writes the cached unique open/click counters so
	// summary readers avoid recomputing from tracking records.
	UpdateEngagement(ctx context.Context, id string, uniqueOpens, uniqueClicks int) error
}

// EngagementAggregate is the raw aggregation over a campaign's tracking
// records, before rates are derived.
type EngagementAggregate struct {
	UniqueOpens  int
	UniqueClicks int
	TotalOpens   int
	TotalClicks  int
}

// TrackingQueries is the read side of the tracking store used by the stats
// aggregator and the tracking-details endpoint.
type TrackingQueries interface {
	// Aggregate computes unique and total open/click counts for a campaign.
	Aggregate(ctx context.Context, campaignID string) (EngagementAggregate, error)

	// ListByCampaign returns all tracking records for a campaign.
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.TrackingRecord, error)
}

// RecipientRepository resolves external lead ids into dispatchable
// recipients. Unknown ids are silently dropped, mirroring the forgiving
// launch behavior of the upstream CRM.
type RecipientRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]domain.Recipient, error)
}
