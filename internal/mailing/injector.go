package mailing

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
)

// TrackingStore is the injector's view of tracking persistence. FindOrCreate
// returns the existing record for a (campaign, lead) pair or creates one
// with a fresh token, so re-launching a campaign never mints a second token
// for the same recipient.
type TrackingStore interface {
	FindOrCreate(ctx context.Context, campaignID, recipientID string) (*domain.TrackingRecord, error)
}

var (
	bodyOpenRe = regexp.MustCompile(`(?i)(<body[^>]*>)`)
	hrefRe     = regexp.MustCompile(`href="([^"]*)"`)
)

// Injector instruments outbound HTML with open beacons and click-tracking
// link rewrites pointing at the tracking server.
type Injector struct {
	baseURL string
	store   TrackingStore
}

// NewInjector creates an injector. baseURL is the public origin of the
// tracking server, without a trailing slash.
func NewInjector(baseURL string, store TrackingStore) *Injector {
	return &Injector{baseURL: strings.TrimRight(baseURL, "/"), store: store}
}

// Instrument resolves the tracking record for the recipient and returns the
// content with beacons and rewritten links. Instrumenting already
// instrumented content is a no-op beyond the idempotent link skip.
func (in *Injector) Instrument(ctx context.Context, campaignID, recipientID, content string) (string, *domain.TrackingRecord, error) {
	rec, err := in.store.FindOrCreate(ctx, campaignID, recipientID)
	if err != nil {
		return "", nil, fmt.Errorf("resolve tracking record: %w", err)
	}
	return in.Inject(content, rec.Token.String()), rec, nil
}

// Inject adds open beacons and wraps links for the given token.
func (in *Injector) Inject(content, token string) string {
	openURL := in.OpenURL(token)
	if strings.Contains(content, openURL) {
		return in.wrapLinks(content, token)
	}

	// Mail clients are inconsistent about which pixel styles they load, so
	// beacons go in at several insertion points with different hiding
	// strategies.
	pixelAbs := fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:block !important;position:absolute;top:-9999px;left:-9999px;border:0;outline:0;background:transparent;" alt="" />`, openURL)
	pixelHidden := fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:none !important;border:0;outline:0;" alt="" />`, openURL)
	pixelDiv := fmt.Sprintf(`<div style="width:1px;height:1px;background-image:url(%s);display:block;position:absolute;top:-9999px;left:-9999px;"></div>`, openURL)

	lower := strings.ToLower(content)
	opened := false
	closed := false

	if strings.Contains(lower, "<body") {
		content = bodyOpenRe.ReplaceAllString(content, "$1\n"+pixelAbs+"\n"+pixelHidden+"\n")
		opened = true
	}
	if strings.Contains(lower, "</body>") {
		content = strings.Replace(content, "</body>", "\n"+pixelDiv+"\n</body>", 1)
		closed = true
	} else if strings.Contains(lower, "</html>") {
		content = strings.Replace(content, "</html>", "\n"+pixelAbs+"\n"+pixelHidden+"\n</html>", 1)
		closed = true
	}

	// A beacon must land at both ends of the document; patch whichever
	// boundary was missing.
	switch {
	case opened && !closed:
		content = content + "\n" + pixelDiv
	case !opened && closed:
		content = pixelAbs + "\n" + pixelHidden + "\n" + content
	case !opened && !closed:
		content = pixelAbs + "\n" + pixelHidden + "\n" + content + "\n" + pixelDiv
	}

	return in.wrapLinks(content, token)
}

// OpenURL returns the beacon URL for a token.
func (in *Injector) OpenURL(token string) string {
	return fmt.Sprintf("%s/track/open/%s/", in.baseURL, token)
}

// ClickURL returns the redirect URL for a token and destination.
func (in *Injector) ClickURL(token, destination string) string {
	return fmt.Sprintf("%s/track/click/%s/?url=%s", in.baseURL, token, url.QueryEscape(destination))
}

func (in *Injector) wrapLinks(content, token string) string {
	return hrefRe.ReplaceAllStringFunc(content, func(match string) string {
		href := hrefRe.FindStringSubmatch(match)[1]
		if skipHref(href) {
			return match
		}
		return fmt.Sprintf(`href="%s"`, in.ClickURL(token, href))
	})
}

// skipHref reports whether a link must not be wrapped: non-navigational
// schemes, fragment anchors, empty targets, and links that already point at
// the click endpoint.
func skipHref(href string) bool {
	return strings.TrimSpace(href) == "" ||
		strings.Contains(href, "/track/click/") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:")
}
