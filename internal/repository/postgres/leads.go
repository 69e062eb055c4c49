package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Infifrontend/SOAR-AI-V1/internal/domain"
)

// LeadRepo resolves campaign target leads to dispatchable recipients.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

// ListByIDs returns the recipients for the given lead ids. Unknown ids are
// silently dropped; the dispatcher treats the remainder as the target set.
func (r *LeadRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Recipient, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id,
		       COALESCE(ct.first_name,''), COALESCE(ct.last_name,''), COALESCE(ct.email,''),
		       co.name, COALESCE(co.industry,''),
		       COALESCE(co.employee_count, 0), COALESCE(co.travel_budget, 0)
		FROM leads l
		JOIN companies co ON co.id = l.company_id
		LEFT JOIN contacts ct ON ct.id = l.contact_id
		WHERE l.id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var rec domain.Recipient
		var first, last string
		if err := rows.Scan(
			&rec.ID, &first, &last, &rec.Email,
			&rec.CompanyName, &rec.Industry,
			&rec.EmployeeCount, &rec.TravelBudget,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		rec.Name = strings.TrimSpace(first + " " + last)
		out = append(out, rec)
	}
	return out, rows.Err()
}
