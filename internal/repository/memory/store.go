// Package memory provides mutex-guarded in-memory implementations of the
// persistence interfaces. Used for local development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Infifrontend/SOAR-AI-V1/internal/campaign"
	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
	"github.com/Infifrontend/SOAR-AI-V1/internal/tracking"
)

// Store holds campaigns, leads, and tracking records in process memory.
type Store struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	leads     map[string]domain.Recipient
	records   map[string]*domain.TrackingRecord // keyed by tracking id
	byPair    map[string]string                 // campaign/lead -> tracking id
	byToken   map[uuid.UUID]string              // token -> tracking id
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		campaigns: make(map[string]*domain.Campaign),
		leads:     make(map[string]domain.Recipient),
		records:   make(map[string]*domain.TrackingRecord),
		byPair:    make(map[string]string),
		byToken:   make(map[uuid.UUID]string),
	}
}

// PutCampaign inserts or replaces a campaign.
func (s *Store) PutCampaign(c *domain.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns[c.ID] = &cp
}

// PutLead inserts or replaces a lead.
func (s *Store) PutLead(r domain.Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[r.ID] = r
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) RecordLaunch(ctx context.Context, id string, emailsSent, targetCount int, sentDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.EmailsSent = emailsSent
	c.TargetCount = targetCount
	c.Status = domain.CampaignActive
	c.SentDate = &sentDate
	c.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdateEngagement(ctx context.Context, id string, uniqueOpens, uniqueClicks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.EmailsOpened = uniqueOpens
	c.EmailsClicked = uniqueClicks
	c.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]domain.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Recipient
	for _, id := range ids {
		if r, ok := s.leads[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) FindOrCreate(ctx context.Context, campaignID, recipientID string) (*domain.TrackingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := campaignID + "/" + recipientID
	if id, ok := s.byPair[key]; ok {
		cp := *s.records[id]
		return &cp, nil
	}
	rec := &domain.TrackingRecord{
		ID:          uuid.NewString(),
		CampaignID:  campaignID,
		RecipientID: recipientID,
		Token:       uuid.New(),
	}
	s.records[rec.ID] = rec
	s.byPair[key] = rec.ID
	s.byToken[rec.Token] = rec.ID
	cp := *rec
	return &cp, nil
}

func (s *Store) MarkSent(ctx context.Context, trackingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[trackingID]
	if !ok {
		return tracking.ErrUnknownToken
	}
	now := time.Now()
	rec.EmailSent = &now
	return nil
}

func (s *Store) RecordOpen(ctx context.Context, ev tracking.Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byToken[ev.Token]
	if !ok {
		return "", tracking.ErrUnknownToken
	}
	rec := s.records[id]
	at := ev.At
	if rec.FirstOpened == nil {
		rec.FirstOpened = &at
	}
	rec.LastOpened = &at
	rec.OpenCount++
	rec.UserAgent = ev.UserAgent
	rec.IPAddress = ev.IPAddress
	return rec.CampaignID, nil
}

func (s *Store) RecordClick(ctx context.Context, ev tracking.Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byToken[ev.Token]
	if !ok {
		return "", tracking.ErrUnknownToken
	}
	rec := s.records[id]
	at := ev.At
	if rec.FirstClicked == nil {
		rec.FirstClicked = &at
	}
	rec.LastClicked = &at
	rec.ClickCount++
	rec.UserAgent = ev.UserAgent
	rec.IPAddress = ev.IPAddress
	return rec.CampaignID, nil
}

func (s *Store) Aggregate(ctx context.Context, campaignID string) (campaign.EngagementAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var agg campaign.EngagementAggregate
	for _, rec := range s.records {
		if rec.CampaignID != campaignID {
			continue
		}
		if rec.OpenCount > 0 {
			agg.UniqueOpens++
		}
		if rec.ClickCount > 0 {
			agg.UniqueClicks++
		}
		agg.TotalOpens += rec.OpenCount
		agg.TotalClicks += rec.ClickCount
	}
	return agg, nil
}

func (s *Store) ListByCampaign(ctx context.Context, campaignID string) ([]domain.TrackingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TrackingRecord
	for _, rec := range s.records {
		if rec.CampaignID == campaignID {
			out = append(out, *rec)
		}
	}
	return out, nil
}
