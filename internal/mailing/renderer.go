package mailing

import (
	"crypto/md5"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
)

// TemplateService renders Liquid templates with per-lead personalization.
// Parsed templates are cached by content hash, so rendering the same subject
// or body for every recipient in a batch parses it once.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewTemplateService creates a template service with the custom filters
// available to campaign authors.
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerFilters()
	return ts
}

func (ts *TemplateService) registerFilters() {
	// Fallback value: {{ contact_name | default: "Friend" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	// Title case: {{ industry | titlecase }}
	ts.engine.RegisterFilter("titlecase", func(s string) string {
		return strings.Title(strings.ToLower(s))
	})

	// Currency formatting: {{ travel_budget | currency }}
	ts.engine.RegisterFilter("currency", func(value interface{}) string {
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return v
			}
			f = parsed
		default:
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("$%.2f", f)
	})
}

// Parse compiles a template string and returns any syntax error. Used to
// validate campaign content before a launch touches the transport.
func (ts *TemplateService) Parse(templateStr string) error {
	_, err := ts.engine.ParseString(templateStr)
	if err != nil {
		return &TemplateError{Field: "template", Err: err}
	}
	return nil
}

// Render processes a template against a personalization context. Unknown
// variables render as empty strings, matching Liquid's lax behavior; only a
// syntax error fails the render.
func (ts *TemplateService) Render(templateStr string, ctx map[string]interface{}) (string, error) {
	key := fmt.Sprintf("%x", md5.Sum([]byte(templateStr)))

	if cached, ok := ts.cache.Load(key); ok {
		return cached.(*liquid.Template).RenderString(ctx)
	}

	tpl, err := ts.engine.ParseString(templateStr)
	if err != nil {
		return "", &TemplateError{Field: "template", Err: err}
	}
	ts.cache.Store(key, tpl)

	return tpl.RenderString(ctx)
}

// LeadContext builds the personalization context for one recipient. Blank
// lead fields fall back to neutral copy so a half-filled CRM record still
// produces a readable email.
func LeadContext(r domain.Recipient) map[string]interface{} {
	ctx := map[string]interface{}{
		"contact_name": "Valued Customer",
		"company_name": "your company",
		"industry":     "your industry",
	}
	if r.Name != "" {
		ctx["contact_name"] = r.Name
	}
	if r.CompanyName != "" {
		ctx["company_name"] = r.CompanyName
	}
	if r.Industry != "" {
		ctx["industry"] = r.Industry
	}
	if r.EmployeeCount > 0 {
		ctx["employees"] = strconv.Itoa(r.EmployeeCount)
	} else {
		ctx["employees"] = "your team"
	}
	if r.TravelBudget > 0 {
		ctx["travel_budget"] = fmt.Sprintf("$%s", formatAmount(r.TravelBudget))
	} else {
		ctx["travel_budget"] = "your budget"
	}
	return ctx
}

// formatAmount renders a budget with thousand separators and no cents when
// the value is whole, e.g. 250000 -> "250,000".
func formatAmount(v float64) string {
	whole := int64(v)
	frac := v - float64(whole)

	s := strconv.FormatInt(whole, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if frac > 0.004 {
		out += strings.TrimPrefix(fmt.Sprintf("%.2f", frac), "0")
	}
	return out
}
