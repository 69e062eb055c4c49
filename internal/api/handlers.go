package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Infifrontend/SOAR-AI-V1/internal/campaign"
	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
	"github.com/Infifrontend/SOAR-AI-V1/internal/mailing"
)

// Handlers contains the campaign HTTP handlers.
type Handlers struct {
	campaigns *campaign.Service
}

// NewHandlers creates a Handlers instance.
func NewHandlers(campaigns *campaign.Service) *Handlers {
	return &Handlers{campaigns: campaigns}
}

type launchRequest struct {
	TargetLeads []string `json:"target_leads"`
	// Recipients sends to inline addresses instead of stored leads.
	Recipients []domain.Recipient `json:"recipients,omitempty"`
}

// LaunchCampaign runs a dispatch pass over the campaign's target leads and
// returns the delivery report.
func (h *Handlers) LaunchCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var report *domain.DispatchReport
	var err error
	if len(req.Recipients) > 0 {
		report, err = h.campaigns.LaunchDirect(r.Context(), id, req.Recipients)
	} else {
		report, err = h.campaigns.Launch(r.Context(), id, req.TargetLeads)
	}
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		respondError(w, http.StatusNotFound, "campaign not found")
		return
	case errors.Is(err, campaign.ErrPaused):
		respondError(w, http.StatusConflict, "campaign is paused")
		return
	case errors.Is(err, campaign.ErrLaunchInProgress):
		respondError(w, http.StatusConflict, "campaign launch already in progress")
		return
	case errors.Is(err, mailing.ErrTransportUnavailable):
		respondJSON(w, http.StatusServiceUnavailable, report)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to launch campaign")
		return
	}

	if !report.Success {
		respondJSON(w, http.StatusBadRequest, report)
		return
	}
	respondJSON(w, http.StatusCreated, report)
}

// CampaignStats recomputes and returns the engagement statistics.
func (h *Handlers) CampaignStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stats, err := h.campaigns.RefreshStats(r.Context(), id)
	if errors.Is(err, campaign.ErrNotFound) {
		respondError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// CampaignTracking returns the per-recipient tracking rows.
func (h *Handlers) CampaignTracking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.campaigns.TrackingDetails(r.Context(), id)
	if errors.Is(err, campaign.ErrNotFound) {
		respondError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load tracking details")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id":            id,
		"total_tracking_records": len(records),
		"tracking_details":       records,
	})
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
