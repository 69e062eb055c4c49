package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infifrontend/SOAR-AI-V1/internal/campaign"
	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
	"github.com/Infifrontend/SOAR-AI-V1/internal/repository/memory"
	"github.com/Infifrontend/SOAR-AI-V1/internal/tracking"
)

type stubDispatcher struct {
	report     *domain.DispatchReport
	recipients []domain.Recipient
}

func (d *stubDispatcher) Launch(ctx context.Context, c *domain.Campaign, recipients []domain.Recipient) (*domain.DispatchReport, error) {
	d.recipients = recipients
	return d.report, nil
}

func newTestServer(t *testing.T, store *memory.Store, disp campaign.Dispatcher) *httptest.Server {
	t.Helper()
	svc := campaign.NewService(store, store, store, disp, nil)
	ts := httptest.NewServer(SetupRoutes(NewHandlers(svc)))
	t.Cleanup(ts.Close)
	return ts
}

func seedCampaign(store *memory.Store) {
	store.PutCampaign(&domain.Campaign{
		ID:          "c1",
		Name:        "Q3 Outreach",
		SubjectLine: "Hello",
		Status:      domain.CampaignDraft,
		EmailsSent:  10,
	})
}

func TestLaunchCampaignEndpoint(t *testing.T) {
	store := memory.NewStore()
	seedCampaign(store)
	store.PutLead(domain.Recipient{ID: "l1", Email: "a@globex.com"})

	disp := &stubDispatcher{report: &domain.DispatchReport{
		Success:     true,
		Message:     "Campaign completed: 1 sent, 0 failed",
		EmailsSent:  1,
		Attempted:   1,
		SuccessRate: "100.0%",
		Results: []domain.DispatchResult{
			{RecipientID: "l1", Email: "a@globex.com", Status: domain.DispatchSent},
		},
		CompletedAt: time.Now(),
	}}
	ts := newTestServer(t, store, disp)

	body := bytes.NewBufferString(`{"target_leads":["l1"]}`)
	resp, err := http.Post(ts.URL+"/api/campaigns/c1/launch", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, float64(1), got["emails_sent"])
	assert.Equal(t, float64(1), got["total_processed"])
	assert.Equal(t, "100.0%", got["success_rate"])

	// launch counters written back
	c, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, c.Status)
	assert.Equal(t, 1, c.EmailsSent)
}

func TestLaunchCampaignInlineRecipients(t *testing.T) {
	store := memory.NewStore()
	seedCampaign(store)

	disp := &stubDispatcher{report: &domain.DispatchReport{
		Success:     true,
		Message:     "Campaign completed: 1 sent, 0 failed",
		EmailsSent:  1,
		Attempted:   1,
		SuccessRate: "100.0%",
	}}
	ts := newTestServer(t, store, disp)

	body := bytes.NewBufferString(`{"recipients":[{"id":"x1","email":"dev@globex.com","company_name":"Globex"}]}`)
	resp, err := http.Post(ts.URL+"/api/campaigns/c1/launch", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, disp.recipients, 1)
	assert.Equal(t, "dev@globex.com", disp.recipients[0].Email)
	assert.Equal(t, "Globex", disp.recipients[0].CompanyName)
}

func TestLaunchCampaignNotFound(t *testing.T) {
	ts := newTestServer(t, memory.NewStore(), &stubDispatcher{})

	resp, err := http.Post(ts.URL+"/api/campaigns/missing/launch", "application/json",
		bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLaunchPausedCampaign(t *testing.T) {
	store := memory.NewStore()
	store.PutCampaign(&domain.Campaign{ID: "c1", Status: domain.CampaignPaused})
	ts := newTestServer(t, store, &stubDispatcher{})

	resp, err := http.Post(ts.URL+"/api/campaigns/c1/launch", "application/json",
		bytes.NewBufferString(`{"target_leads":["l1"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLaunchNoValidLeads(t *testing.T) {
	store := memory.NewStore()
	seedCampaign(store)
	disp := &stubDispatcher{report: &domain.DispatchReport{
		Success: false,
		Message: "No target leads found",
	}}
	ts := newTestServer(t, store, disp)

	resp, err := http.Post(ts.URL+"/api/campaigns/c1/launch", "application/json",
		bytes.NewBufferString(`{"target_leads":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCampaignStatsEndpoint(t *testing.T) {
	store := memory.NewStore()
	seedCampaign(store)

	rec, err := store.FindOrCreate(context.Background(), "c1", "l1")
	require.NoError(t, err)
	_, err = store.RecordOpen(context.Background(), tracking.Event{Token: rec.Token, At: time.Now()})
	require.NoError(t, err)

	ts := newTestServer(t, store, &stubDispatcher{})

	resp, err := http.Get(ts.URL + "/api/campaigns/c1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats domain.CampaignStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, "c1", stats.CampaignID)
	assert.Equal(t, 10, stats.EmailsSent)
	assert.Equal(t, 1, stats.UniqueOpens)
	assert.Equal(t, 1, stats.TotalOpens)
}

func TestCampaignTrackingEndpoint(t *testing.T) {
	store := memory.NewStore()
	seedCampaign(store)
	_, err := store.FindOrCreate(context.Background(), "c1", "l1")
	require.NoError(t, err)

	ts := newTestServer(t, store, &stubDispatcher{})

	resp, err := http.Get(ts.URL + "/api/campaigns/c1/tracking")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		CampaignID string                  `json:"campaign_id"`
		Total      int                     `json:"total_tracking_records"`
		Details    []domain.TrackingRecord `json:"tracking_details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "c1", got.CampaignID)
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Details, 1)
	assert.Equal(t, "l1", got.Details[0].RecipientID)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, memory.NewStore(), &stubDispatcher{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
