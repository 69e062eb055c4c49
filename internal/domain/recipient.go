package domain

// Recipient is the read-only view of an external lead entity that a campaign
// targets. Only the display name, email address, and the merge fields used by
// the template renderer are exposed; lead lifecycle management lives outside
// this service.
type Recipient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`

	// EmployeeCount and TravelBudget are optional merge fields; zero means
	// unknown and the renderer substitutes a neutral default.
	EmployeeCount int     `json:"employee_count"`
	TravelBudget  float64 `json:"travel_budget"`
}
