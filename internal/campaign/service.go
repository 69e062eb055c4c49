package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
	"github.com/Infifrontend/SOAR-AI-V1/internal/pkg/distlock"
	"github.com/Infifrontend/SOAR-AI-V1/internal/pkg/logger"
)

// launchLockTTL bounds how long a crashed launch can block relaunching.
const launchLockTTL = 10 * time.Minute

// Dispatcher runs the per-recipient send pipeline for one campaign launch.
// The concrete implementation lives in internal/mailing.
type Dispatcher interface {
	Launch(ctx context.Context, c *domain.Campaign, recipients []domain.Recipient) (*domain.DispatchReport, error)
}

// Service implements campaign business logic. It coordinates between the
// repository layer, the mailing dispatcher, and the stats cache. All public
// methods are safe for concurrent use if the underlying repositories are
// concurrency-safe.
type Service struct {
	repo       Repository
	tracking   TrackingQueries
	recipients RecipientRepository
	dispatcher Dispatcher
	cache      *redis.Client // optional; nil disables stats caching
	cacheTTL   time.Duration
}

// NewService creates a campaign service. cache may be nil.
func NewService(repo Repository, tracking TrackingQueries, recipients RecipientRepository, dispatcher Dispatcher, cache *redis.Client) *Service {
	return &Service{
		repo:       repo,
		tracking:   tracking,
		recipients: recipients,
		dispatcher: dispatcher,
		cache:      cache,
		cacheTTL:   5 * time.Minute,
	}
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// Launch resolves the target leads and runs one dispatch pass over them.
// Per-recipient failures are reported, not returned; the returned error is
// reserved for campaign lookup failures, a paused campaign, and a fully
// unreachable transport.
func (s *Service) Launch(ctx context.Context, id string, leadIDs []string) (*domain.DispatchReport, error) {
	return s.launch(ctx, id, func(ctx context.Context) ([]domain.Recipient, error) {
		return s.recipients.ListByIDs(ctx, leadIDs)
	})
}

// LaunchDirect runs a dispatch pass over caller-supplied recipients,
// bypassing lead resolution. Used by dev tooling and one-off sends.
func (s *Service) LaunchDirect(ctx context.Context, id string, recipients []domain.Recipient) (*domain.DispatchReport, error) {
	return s.launch(ctx, id, func(context.Context) ([]domain.Recipient, error) {
		return recipients, nil
	})
}

func (s *Service) launch(ctx context.Context, id string, resolve func(context.Context) ([]domain.Recipient, error)) (*domain.DispatchReport, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.CampaignPaused {
		return nil, ErrPaused
	}

	lock := distlock.New(s.cache, "launch:campaign:"+id, launchLockTTL)
	ok, err := lock.TryAcquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire launch lock: %w", err)
	}
	if !ok {
		return nil, ErrLaunchInProgress
	}
	defer lock.Release(ctx)

	recipients, err := resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve target leads: %w", err)
	}

	report, dispatchErr := s.dispatcher.Launch(ctx, c, recipients)

	// Counters are written whenever a dispatch pass ran over at least one
	// valid recipient, an aborted run with partial deliveries included:
	// emails that went out must be recorded.
	if report != nil && report.Attempted > 0 && (report.Success || report.EmailsSent > 0) {
		if err := s.repo.RecordLaunch(ctx, c.ID, report.EmailsSent, report.Attempted, report.CompletedAt); err != nil {
			// The emails are out; a failed counter write must not turn the
			// launch into an error. Log and return the report.
			logger.Error("failed to record launch counters", "campaign_id", c.ID, "error", err.Error())
		}
	}

	return report, dispatchErr
}

// RefreshStats recomputes engagement statistics from the tracking store,
// writes the unique counters back onto the campaign, and caches a snapshot.
func (s *Service) RefreshStats(ctx context.Context, id string) (*domain.CampaignStats, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	agg, err := s.tracking.Aggregate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("aggregate tracking records: %w", err)
	}

	stats := buildStats(c, agg)

	if err := s.repo.UpdateEngagement(ctx, id, agg.UniqueOpens, agg.UniqueClicks); err != nil {
		logger.Warn("failed to write cached engagement counters", "campaign_id", id, "error", err.Error())
	}

	s.cacheStats(ctx, stats)
	return stats, nil
}

// TrackingDetails returns the per-recipient tracking rows for a campaign.
func (s *Service) TrackingDetails(ctx context.Context, id string) ([]domain.TrackingRecord, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.tracking.ListByCampaign(ctx, id)
}

func buildStats(c *domain.Campaign, agg EngagementAggregate) *domain.CampaignStats {
	stats := &domain.CampaignStats{
		CampaignID:   c.ID,
		EmailsSent:   c.EmailsSent,
		UniqueOpens:  agg.UniqueOpens,
		UniqueClicks: agg.UniqueClicks,
		TotalOpens:   agg.TotalOpens,
		TotalClicks:  agg.TotalClicks,
	}
	if c.EmailsSent > 0 {
		stats.OpenRate = pct(agg.UniqueOpens, c.EmailsSent)
		stats.ClickRate = pct(agg.UniqueClicks, c.EmailsSent)
	}
	if agg.UniqueOpens > 0 {
		stats.ClickToOpenRate = pct(agg.UniqueClicks, agg.UniqueOpens)
	}
	return stats
}

func pct(n, d int) float64 {
	v := float64(n) / float64(d) * 100
	return math.Round(v*100) / 100
}

func (s *Service) cacheStats(ctx context.Context, stats *domain.CampaignStats) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	key := fmt.Sprintf("stats:campaign:%s", stats.CampaignID)
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		logger.Debug("stats cache write failed", "key", key, "error", err.Error())
	}
}
