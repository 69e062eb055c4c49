package mailing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
	"github.com/Infifrontend/SOAR-AI-V1/internal/metrics"
	"github.com/Infifrontend/SOAR-AI-V1/internal/pkg/logger"
)

// DispatchTrackingStore extends the injector's store with the sent marker
// written after a successful transport call.
type DispatchTrackingStore interface {
	TrackingStore
	MarkSent(ctx context.Context, trackingID string) error
}

// DispatcherConfig carries the tunables for one dispatcher instance.
type DispatcherConfig struct {
	BatchSize     int
	RatePerSecond int
	// SendTimeout bounds each transport call; zero means no deadline.
	SendTimeout    time.Duration
	LogDir         string
	FromEmail      string
	FromName       string
	DefaultCTA     string
	DefaultCTALink string
}

// Dispatcher runs the full per-recipient pipeline for a campaign launch:
// validation, rendering, layout wrapping, tracking injection, and transport
// delivery, in bounded batches with partial-failure tolerance.
type Dispatcher struct {
	cfg       DispatcherConfig
	templates *TemplateService
	injector  *Injector
	store     DispatchTrackingStore
	transport Transport
	limiter   *rate.Limiter
}

// NewDispatcher wires a dispatcher. trackingBaseURL is the public origin of
// the tracking server.
func NewDispatcher(cfg DispatcherConfig, templates *TemplateService, store DispatchTrackingStore, transport Transport, trackingBaseURL string) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RatePerSecond)
	}
	return &Dispatcher{
		cfg:       cfg,
		templates: templates,
		injector:  NewInjector(trackingBaseURL, store),
		store:     store,
		transport: transport,
		limiter:   limiter,
	}
}

// prepared is one recipient's fully rendered message, ready for transport.
type prepared struct {
	msg      *Message
	lead     domain.Recipient
	tracking *domain.TrackingRecord
}

// Launch sends the campaign to the given recipients. Per-recipient failures
// of any kind are recorded in the report and processing continues; the only
// error return paths are a fully unreachable transport and context
// cancellation, both with zero further sends.
func (d *Dispatcher) Launch(ctx context.Context, c *domain.Campaign, recipients []domain.Recipient) (*domain.DispatchReport, error) {
	report := &domain.DispatchReport{StartedAt: time.Now()}

	runLog, closeLog := d.openRunLog(c.ID)
	defer closeLog()

	if len(recipients) == 0 {
		runLog.Log(logger.WARN, "no target leads found", "campaign_id", c.ID)
		report.Finalize()
		report.Success = false
		report.Message = "No target leads found"
		return report, nil
	}

	runLog.Log(logger.INFO, "starting email campaign",
		"campaign", c.Name, "campaign_id", c.ID, "target_leads", len(recipients))

	batch := d.prepare(ctx, c, recipients, report, runLog)
	if len(batch) == 0 {
		runLog.Log(logger.WARN, "no valid emails to send", "campaign_id", c.ID)
		report.Finalize()
		report.Success = false
		report.Message = "No valid emails to send"
		return report, nil
	}

	for i := 0; i < len(batch); i += d.cfg.BatchSize {
		end := i + d.cfg.BatchSize
		if end > len(batch) {
			end = len(batch)
		}
		for j, p := range batch[i:end] {
			if err := d.limiter.Wait(ctx); err != nil {
				d.failRemaining(report, batch[i+j:], err)
				report.Finalize()
				return report, err
			}

			if err := d.send(ctx, p.msg); err != nil {
				if errors.Is(err, ErrTransportUnavailable) {
					runLog.Log(logger.ERROR, "transport unreachable, aborting run",
						"campaign_id", c.ID, "error", err.Error())
					// The abort still has to account for every recipient so
					// the campaign counters record what actually went out.
					d.failRemaining(report, batch[i+j:], err)
					report.Success = false
					report.Message = "Email service unavailable"
					report.Finalize()
					return report, err
				}
				metrics.EmailFailures.Inc()
				runLog.Log(logger.ERROR, "send failed",
					"recipient", p.msg.To, "error", err.Error())
				report.Results = append(report.Results, domain.DispatchResult{
					RecipientID: p.lead.ID,
					Email:       p.msg.To,
					Status:      domain.DispatchFailed,
					Reason:      fmt.Sprintf("%s: %v", ReasonSendFailed, err),
				})
				continue
			}

			metrics.EmailsSent.Inc()
			runLog.Log(logger.INFO, "email sent", "recipient", p.msg.To, "company", p.lead.CompanyName)
			report.Results = append(report.Results, domain.DispatchResult{
				RecipientID: p.lead.ID,
				Email:       p.msg.To,
				Status:      domain.DispatchSent,
			})

			if err := d.store.MarkSent(ctx, p.tracking.ID); err != nil {
				runLog.Log(logger.WARN, "failed to mark tracking record sent",
					"tracking_id", p.tracking.ID, "error", err.Error())
			}
		}
	}

	report.Finalize()
	report.Success = true
	report.Message = fmt.Sprintf("Campaign completed: %d sent, %d failed",
		report.EmailsSent, report.FailedCount)
	runLog.Log(logger.INFO, "campaign completed",
		"sent", report.EmailsSent, "failed", report.FailedCount)
	return report, nil
}

// failRemaining records a failure result for every recipient an aborted run
// never delivered to, the one whose send failed included.
func (d *Dispatcher) failRemaining(report *domain.DispatchReport, remaining []prepared, cause error) {
	for _, p := range remaining {
		report.Results = append(report.Results, domain.DispatchResult{
			RecipientID: p.lead.ID,
			Email:       p.msg.To,
			Status:      domain.DispatchFailed,
			Reason:      fmt.Sprintf("%s: %v", ReasonSendFailed, cause),
		})
	}
}

// send bounds one transport call with the configured timeout so a stalled
// provider cannot block the dispatch indefinitely.
func (d *Dispatcher) send(ctx context.Context, msg *Message) error {
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}
	return d.transport.Send(ctx, msg)
}

// prepare runs validation, rendering, wrapping, and instrumentation for each
// recipient. Failures are recorded on the report; only cleanly prepared
// messages come back.
func (d *Dispatcher) prepare(ctx context.Context, c *domain.Campaign, recipients []domain.Recipient, report *domain.DispatchReport, runLog *logger.Logger) []prepared {
	out := make([]prepared, 0, len(recipients))

	for _, lead := range recipients {
		email := strings.TrimSpace(lead.Email)
		if email == "" || !strings.Contains(email, "@") || !strings.Contains(email, ".") {
			runLog.Log(logger.ERROR, "skipping lead with invalid email",
				"company", lead.CompanyName, "email", email)
			report.Results = append(report.Results, domain.DispatchResult{
				RecipientID: lead.ID,
				Email:       email,
				Status:      domain.DispatchFailed,
				Reason:      ReasonInvalidEmail,
			})
			continue
		}

		leadCtx := LeadContext(lead)

		subject, err := d.templates.Render(c.SubjectLine, leadCtx)
		if err == nil {
			var body string
			body, err = d.templates.Render(c.EmailContent, leadCtx)
			if err == nil {
				cta := CTA{Text: c.CTAText, Link: c.CTALink}
				if cta.Text == "" {
					cta.Text = d.cfg.DefaultCTA
				}
				if cta.Link == "" {
					cta.Link = d.cfg.DefaultCTALink
				}
				contactName := lead.Name
				if contactName == "" {
					contactName = "Valued Customer"
				}

				html := WrapLayout(body, subject, contactName, cta)

				var tracked string
				var rec *domain.TrackingRecord
				tracked, rec, err = d.injector.Instrument(ctx, c.ID, lead.ID, html)
				if err == nil {
					out = append(out, prepared{
						msg: &Message{
							To:        email,
							ToName:    lead.Name,
							FromEmail: d.cfg.FromEmail,
							FromName:  d.cfg.FromName,
							Subject:   subject,
							PlainText: StripTags(tracked),
							HTML:      tracked,
						},
						lead:     lead,
						tracking: rec,
					})
					runLog.Log(logger.INFO, "prepared email",
						"recipient", email, "company", lead.CompanyName)
					continue
				}
			}
		}

		runLog.Log(logger.ERROR, "error preparing email",
			"recipient", email, "error", err.Error())
		reason := ReasonRenderFailed
		var tplErr *TemplateError
		if !errors.As(err, &tplErr) {
			reason = fmt.Sprintf("preparation failed: %v", err)
		}
		report.Results = append(report.Results, domain.DispatchResult{
			RecipientID: lead.ID,
			Email:       email,
			Status:      domain.DispatchFailed,
			Reason:      reason,
		})
	}

	return out
}

// openRunLog opens the per-launch log file under LogDir. The returned close
// func is safe on all exit paths; on any setup failure the run logs to the
// process logger instead.
func (d *Dispatcher) openRunLog(campaignID string) (*logger.Logger, func()) {
	if d.cfg.LogDir == "" {
		return logger.Default(), func() {}
	}
	if err := os.MkdirAll(d.cfg.LogDir, 0o755); err != nil {
		logger.Warn("cannot create dispatch log dir", "dir", d.cfg.LogDir, "error", err.Error())
		return logger.Default(), func() {}
	}
	name := fmt.Sprintf("email_campaign_%s_%s.log", campaignID, time.Now().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(d.cfg.LogDir, name))
	if err != nil {
		logger.Warn("cannot create dispatch log file", "file", name, "error", err.Error())
		return logger.Default(), func() {}
	}
	return logger.New(f, logger.INFO), func() { f.Close() }
}
