package mailing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
)

func TestRenderSubstitutesKnownKeys(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render("Hello {{ contact_name }} from {{ company_name }}", map[string]interface{}{
		"contact_name": "Sarah Chen",
		"company_name": "Globex",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Sarah Chen from Globex", out)
}

func TestRenderUnknownKeyIsEmpty(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render("Hi {{ nonexistent_field }}!", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Hi !", out)
}

func TestRenderSyntaxError(t *testing.T) {
	ts := NewTemplateService()

	_, err := ts.Render("Hello {% endif %}", map[string]interface{}{})
	require.Error(t, err)
	var tplErr *TemplateError
	assert.ErrorAs(t, err, &tplErr)
}

func TestRenderCaching(t *testing.T) {
	ts := NewTemplateService()
	tpl := "Hello {{ contact_name }}"

	first, err := ts.Render(tpl, map[string]interface{}{"contact_name": "A"})
	require.NoError(t, err)
	second, err := ts.Render(tpl, map[string]interface{}{"contact_name": "B"})
	require.NoError(t, err)

	assert.Equal(t, "Hello A", first)
	assert.Equal(t, "Hello B", second)
}

func TestRenderFilters(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render(`{{ missing | default: "Friend" }} / {{ industry | titlecase }} / {{ budget | currency }}`, map[string]interface{}{
		"industry": "corporate TRAVEL",
		"budget":   1500.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Friend / Corporate Travel / $1500.50", out)
}

func TestLeadContextDefaults(t *testing.T) {
	ctx := LeadContext(domain.Recipient{})

	assert.Equal(t, "Valued Customer", ctx["contact_name"])
	assert.Equal(t, "your company", ctx["company_name"])
	assert.Equal(t, "your industry", ctx["industry"])
	assert.Equal(t, "your team", ctx["employees"])
	assert.Equal(t, "your budget", ctx["travel_budget"])
}

func TestLeadContextPopulated(t *testing.T) {
	ctx := LeadContext(domain.Recipient{
		Name:          "Sarah Chen",
		CompanyName:   "Globex",
		Industry:      "manufacturing",
		EmployeeCount: 1200,
		TravelBudget:  250000,
	})

	assert.Equal(t, "Sarah Chen", ctx["contact_name"])
	assert.Equal(t, "Globex", ctx["company_name"])
	assert.Equal(t, "1200", ctx["employees"])
	assert.Equal(t, "$250,000", ctx["travel_budget"])
}
