// Package tracking ingests engagement events from remote mail clients: open
// beacon hits and click redirects. Ingestion never fails toward the caller;
// every error is absorbed so mail clients always get their pixel or
// redirect.
package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
	"github.com/Infifrontend/SOAR-AI-V1/internal/metrics"
	"github.com/Infifrontend/SOAR-AI-V1/internal/pkg/logger"
)

// ErrUnknownToken marks a lookup miss. Callers treat it as non-fatal.
var ErrUnknownToken = errors.New("unknown tracking token")

// Event is one ingested open or click.
type Event struct {
	Token     uuid.UUID
	UserAgent string
	IPAddress string
	At        time.Time
}

// Store applies engagement events to tracking records. Implementations must
// apply each event atomically; concurrent opens for the same token must all
// be counted. Both methods return the campaign the record belongs to, or
// ErrUnknownToken.
type Store interface {
	RecordOpen(ctx context.Context, ev Event) (campaignID string, err error)
	RecordClick(ctx context.Context, ev Event) (campaignID string, err error)
}

// StatsRefresher resyncs a campaign's summary counters from its tracking
// records. Satisfied by the campaign service.
type StatsRefresher interface {
	RefreshStats(ctx context.Context, campaignID string) (*domain.CampaignStats, error)
}

// Service records engagement events and keeps campaign counters in sync.
type Service struct {
	store   Store
	refresh StatsRefresher
}

// NewService creates an ingestion service. refresh may be nil to skip
// counter resync.
func NewService(store Store, refresh StatsRefresher) *Service {
	return &Service{store: store, refresh: refresh}
}

// TrackOpen ingests an open event for a raw token string. All failures are
// absorbed: a malformed token, an unknown token, and a store error alike
// only produce a log line.
func (s *Service) TrackOpen(ctx context.Context, token, userAgent, ip string) {
	id, err := uuid.Parse(token)
	if err != nil {
		logger.Debug("open event with malformed token", "token", token)
		return
	}

	campaignID, err := s.store.RecordOpen(ctx, Event{
		Token:     id,
		UserAgent: userAgent,
		IPAddress: ip,
		At:        time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrUnknownToken) {
			logger.Debug("open event for unknown token", "token", token)
		} else {
			logger.Error("failed to record open", "token", token, "error", err.Error())
		}
		return
	}

	metrics.OpensTracked.Inc()
	logger.Info("email opened", "campaign_id", campaignID, "ip", ip)
	s.resync(ctx, campaignID)
}

// TrackClick ingests a click event. Same absorption contract as TrackOpen.
// The return value reports whether the event landed on a known record, so
// the handler can decide where to send the visitor.
func (s *Service) TrackClick(ctx context.Context, token, userAgent, ip string) bool {
	id, err := uuid.Parse(token)
	if err != nil {
		logger.Debug("click event with malformed token", "token", token)
		return false
	}

	campaignID, err := s.store.RecordClick(ctx, Event{
		Token:     id,
		UserAgent: userAgent,
		IPAddress: ip,
		At:        time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrUnknownToken) {
			logger.Debug("click event for unknown token", "token", token)
		} else {
			logger.Error("failed to record click", "token", token, "error", err.Error())
		}
		return false
	}

	metrics.ClicksTracked.Inc()
	logger.Info("email link clicked", "campaign_id", campaignID, "ip", ip)
	s.resync(ctx, campaignID)
	return true
}

func (s *Service) resync(ctx context.Context, campaignID string) {
	if s.refresh == nil {
		return
	}
	if _, err := s.refresh.RefreshStats(ctx, campaignID); err != nil {
		logger.Warn("failed to resync campaign counters", "campaign_id", campaignID, "error", err.Error())
	}
}
