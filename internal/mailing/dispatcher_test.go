package mailing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
)

type fakeTransport struct {
	sent    []*Message
	failFor map[string]error
}

func (t *fakeTransport) Send(ctx context.Context, msg *Message) error {
	if err, ok := t.failFor[msg.To]; ok {
		return err
	}
	t.sent = append(t.sent, msg)
	return nil
}

func testDispatcher(t *testing.T, transport Transport, store DispatchTrackingStore) *Dispatcher {
	t.Helper()
	cfg := DispatcherConfig{
		BatchSize:      50,
		LogDir:         t.TempDir(),
		FromEmail:      "noreply@soarai.com",
		FromName:       "SOAR-AI",
		DefaultCTA:     "Schedule Demo",
		DefaultCTALink: "https://calendly.com/soar-ai/demo",
	}
	return NewDispatcher(cfg, NewTemplateService(), store, transport, "https://track.soar-ai.com")
}

func testCampaign() *domain.Campaign {
	return &domain.Campaign{
		ID:           "c1",
		Name:         "Q3 Outreach",
		SubjectLine:  "Hello {{ contact_name }}",
		EmailContent: "<p>{{ company_name }}, cut travel costs.</p>",
		Status:       domain.CampaignDraft,
	}
}

func lead(id, name, email string) domain.Recipient {
	return domain.Recipient{ID: id, Name: name, Email: email, CompanyName: "Globex"}
}

func TestDispatchHappyPath(t *testing.T) {
	transport := &fakeTransport{}
	store := newStubTrackingStore()
	d := testDispatcher(t, transport, store)

	report, err := d.Launch(context.Background(), testCampaign(), []domain.Recipient{
		lead("l1", "Sarah Chen", "sarah@globex.com"),
		lead("l2", "Raj Patel", "raj@globex.com"),
	})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.EmailsSent)
	assert.Zero(t, report.FailedCount)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, "100.0%", report.SuccessRate)
	require.Len(t, transport.sent, 2)

	msg := transport.sent[0]
	assert.Equal(t, "Hello Sarah Chen", msg.Subject)
	assert.Contains(t, msg.HTML, "Globex, cut travel costs.")
	assert.Contains(t, msg.HTML, "/track/open/")
	assert.Contains(t, msg.HTML, "/track/click/")
	assert.Contains(t, msg.HTML, "Dear Sarah Chen,")
	assert.NotContains(t, msg.PlainText, "<p>")
	assert.Len(t, store.sent, 2)
}

func TestDispatchEmptyRecipients(t *testing.T) {
	transport := &fakeTransport{}
	d := testDispatcher(t, transport, newStubTrackingStore())

	report, err := d.Launch(context.Background(), testCampaign(), nil)
	require.NoError(t, err)

	assert.False(t, report.Success)
	assert.Equal(t, "No target leads found", report.Message)
	assert.Empty(t, transport.sent)
}

func TestDispatchInvalidEmailSkipped(t *testing.T) {
	transport := &fakeTransport{}
	d := testDispatcher(t, transport, newStubTrackingStore())

	report, err := d.Launch(context.Background(), testCampaign(), []domain.Recipient{
		lead("l1", "A", ""),
		lead("l2", "B", "not-an-email"),
		lead("l3", "C", "missing-dot@localhost"),
		lead("l4", "D", "good@globex.com"),
	})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.EmailsSent)
	assert.Equal(t, 3, report.FailedCount)
	assert.Equal(t, 4, report.Attempted)
	for _, res := range report.Results {
		if res.Status == domain.DispatchFailed {
			assert.Equal(t, ReasonInvalidEmail, res.Reason)
		}
	}
}

func TestDispatchRenderErrorIsRecipientScoped(t *testing.T) {
	transport := &fakeTransport{}
	d := testDispatcher(t, transport, newStubTrackingStore())

	c := testCampaign()
	c.SubjectLine = "Broken {% endif %}"

	report, err := d.Launch(context.Background(), c, []domain.Recipient{
		lead("l1", "A", "a@globex.com"),
	})
	require.NoError(t, err)

	assert.False(t, report.Success)
	assert.Equal(t, "No valid emails to send", report.Message)
	require.Len(t, report.Results, 1)
	assert.Equal(t, ReasonRenderFailed, report.Results[0].Reason)
}

func TestDispatchPerRecipientSendFailure(t *testing.T) {
	transport := &fakeTransport{failFor: map[string]error{
		"bounce@globex.com": errors.New("550 mailbox unavailable"),
	}}
	d := testDispatcher(t, transport, newStubTrackingStore())

	report, err := d.Launch(context.Background(), testCampaign(), []domain.Recipient{
		lead("l1", "A", "bounce@globex.com"),
		lead("l2", "B", "ok@globex.com"),
	})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.EmailsSent)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, "50.0%", report.SuccessRate)
}

func TestDispatchTransportUnavailableAborts(t *testing.T) {
	transport := &fakeTransport{failFor: map[string]error{
		"a@globex.com": ErrTransportUnavailable,
	}}
	d := testDispatcher(t, transport, newStubTrackingStore())

	report, err := d.Launch(context.Background(), testCampaign(), []domain.Recipient{
		lead("l1", "A", "a@globex.com"),
		lead("l2", "B", "b@globex.com"),
	})
	require.ErrorIs(t, err, ErrTransportUnavailable)

	assert.False(t, report.Success)
	assert.Zero(t, report.EmailsSent)
	assert.Empty(t, transport.sent)
	// the never-attempted recipient is accounted for too
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.FailedCount)
}

// failAfterTransport delivers a fixed number of messages, then reports the
// provider as unreachable.
type failAfterTransport struct {
	sent      []*Message
	successes int
}

func (t *failAfterTransport) Send(ctx context.Context, msg *Message) error {
	if len(t.sent) >= t.successes {
		return ErrTransportUnavailable
	}
	t.sent = append(t.sent, msg)
	return nil
}

func TestDispatchTransportDiesMidRun(t *testing.T) {
	transport := &failAfterTransport{successes: 1}
	d := testDispatcher(t, transport, newStubTrackingStore())

	report, err := d.Launch(context.Background(), testCampaign(), []domain.Recipient{
		lead("l1", "A", "a@globex.com"),
		lead("l2", "B", "b@globex.com"),
		lead("l3", "C", "c@globex.com"),
	})
	require.ErrorIs(t, err, ErrTransportUnavailable)

	assert.False(t, report.Success)
	assert.Equal(t, "Email service unavailable", report.Message)
	assert.Equal(t, 1, report.EmailsSent)
	assert.Equal(t, 2, report.FailedCount)
	assert.Equal(t, 3, report.Attempted)
	require.Len(t, transport.sent, 1)
}

// stallingTransport blocks until the caller's context expires.
type stallingTransport struct{}

func (stallingTransport) Send(ctx context.Context, msg *Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatchSendTimeoutBoundsStalledTransport(t *testing.T) {
	cfg := DispatcherConfig{
		BatchSize:   50,
		SendTimeout: 20 * time.Millisecond,
		LogDir:      t.TempDir(),
		FromEmail:   "noreply@soarai.com",
		FromName:    "SOAR-AI",
	}
	d := NewDispatcher(cfg, NewTemplateService(), newStubTrackingStore(), stallingTransport{}, "https://track.soar-ai.com")

	report, err := d.Launch(context.Background(), testCampaign(), []domain.Recipient{
		lead("l1", "A", "a@globex.com"),
	})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Zero(t, report.EmailsSent)
	assert.Equal(t, 1, report.FailedCount)
	require.Len(t, report.Results, 1)
	assert.Contains(t, report.Results[0].Reason, "context deadline exceeded")
}

func TestDispatchFullHTMLBodyBypassesEnvelope(t *testing.T) {
	transport := &fakeTransport{}
	d := testDispatcher(t, transport, newStubTrackingStore())

	c := testCampaign()
	c.EmailContent = "<!DOCTYPE html><html><body><p>custom layout</p></body></html>"

	_, err := d.Launch(context.Background(), c, []domain.Recipient{
		lead("l1", "A", "a@globex.com"),
	})
	require.NoError(t, err)
	require.Len(t, transport.sent, 1)

	html := transport.sent[0].HTML
	assert.NotContains(t, html, "Corporate Travel Solutions")
	assert.Contains(t, html, "custom layout")
	assert.Contains(t, html, "/track/open/")
}
