package mailing

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// CTA is the optional call-to-action button rendered inside the envelope.
type CTA struct {
	Text string
	Link string
}

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	multiBlankRe = regexp.MustCompile(`\n{3,}`)
)

// WrapLayout applies the branded HTML envelope around a rendered body.
// Bodies that already start with a document-type declaration or an <html>
// root tag are passed through untouched; the sender supplied a complete
// layout. The wrapper is pure and must run exactly once per recipient,
// after templating and before tracking injection.
func WrapLayout(body, subject, recipientName string, cta CTA) string {
	trimmed := strings.TrimSpace(body)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return body
	}

	if recipientName == "" {
		recipientName = "Valued Customer"
	}

	var ctaHTML string
	if cta.Text != "" && cta.Link != "" {
		ctaHTML = fmt.Sprintf(`
                <div class="cta-section">
                    <a href="%s" class="cta-button">%s</a>
                </div>`, cta.Link, html.EscapeString(cta.Text))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { margin:0; padding:0; -webkit-text-size-adjust:100%%; -ms-text-size-adjust:100%%; }
        .wrapper { width:100%%; background-color:#f5f7fb; padding:20px 0; }
        .content { max-width:600px; margin:0 auto; background:#ffffff; border-radius:6px; overflow:hidden; }
        .header { padding:20px; text-align:center; background: linear-gradient(135deg, #2563eb 0%%, #1d4ed8 100%%); }
        .logo { color:#ffffff; font-size:28px; font-weight:700; margin:0; }
        .tagline { color:#e0e7ff; font-size:14px; margin:8px 0 0 0; }
        .main-content { padding:30px 20px; }
        .greeting { font-size:18px; color:#1f2937; margin:0 0 20px 0; font-weight:600; }
        .content-text { font-size:16px; color:#374151; line-height:1.6; margin:0 0 16px 0; }
        .cta-section { text-align:center; margin:24px 0; }
        .cta-button { display:inline-block; padding:14px 28px; background:#2563eb; color:#ffffff; text-decoration:none; border-radius:6px; font-weight:600; font-size:16px; }
        .footer { background:#f9fafb; border-top:1px solid #e5e7eb; padding:20px; text-align:center; }
        .footer-logo { color:#374151; font-size:20px; font-weight:700; margin:0 0 8px 0; }
        .footer-text { color:#6b7280; font-size:14px; margin:4px 0; }
        .footer-links a { color:#2563eb; text-decoration:none; margin:0 10px; }
    </style>
</head>
<body>
    <div class="wrapper">
        <div class="content">
            <div class="header">
                <h1 class="logo">SOAR-AI</h1>
                <p class="tagline">Corporate Travel Solutions</p>
            </div>
            <div class="main-content">
                <h2 class="greeting">Dear %s,</h2>
                <div class="content-text">
                    %s
                </div>%s
                <div class="content-text">
                    <p>Thank you for your interest in SOAR-AI's corporate travel solutions.</p>
                    <p>Best regards,<br><strong>The SOAR-AI Team</strong></p>
                </div>
            </div>
            <div class="footer">
                <h3 class="footer-logo">SOAR-AI</h3>
                <p class="footer-text">Transforming Corporate Travel Through Innovation</p>
                <div class="footer-links">
                    <a href="#unsubscribe">Unsubscribe</a> | <a href="#privacy">Privacy Policy</a>
                </div>
                <p class="footer-text" style="font-size:12px; margin-top:16px;">
                    &copy; 2025 SOAR-AI Corporation. All rights reserved.
                </p>
            </div>
        </div>
    </div>
</body>
</html>`, html.EscapeString(subject), html.EscapeString(recipientName), body, ctaHTML)
}

// StripTags derives the plain-text part of a message by removing all markup
// tags and decoding entities. Style and script blocks are dropped wholesale
// so CSS does not leak into the text version.
func StripTags(htmlContent string) string {
	s := removeBlock(htmlContent, "style")
	s = removeBlock(s, "script")
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = multiBlankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func removeBlock(s, tag string) string {
	lower := strings.ToLower(s)
	open := "<" + tag
	close := "</" + tag + ">"
	for {
		start := strings.Index(lower, open)
		if start < 0 {
			return s
		}
		end := strings.Index(lower[start:], close)
		if end < 0 {
			return s[:start]
		}
		end = start + end + len(close)
		s = s[:start] + s[end:]
		lower = strings.ToLower(s)
	}
}
