package models

import "time"

// Loan types accepted by the loans table.
const (
	LoanTypeHome     = "home_loan"
	LoanTypePersonal = "personal_loan"
)

// Interest types accepted by the loans table.
const (
	InterestFixed    = "fixed"
	InterestFloating = "floating"
)

// Complaint statuses accepted by the complaints table.
const (
	ComplaintOpen       = "open"
	ComplaintInProgress = "in_progress"
	ComplaintResolved   = "resolved"
)

// Customer is a row of the customers table.
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Loan belongs to exactly one customer.
type Loan struct {
	ID           int64   `json:"id" db:"id"`
	CustomerID   int64   `json:"customer_id" db:"customer_id"`
	LoanType     string  `json:"loan_type" db:"loan_type"`
	InterestType string  `json:"interest_type" db:"interest_type"`
	Amount       float64 `json:"amount" db:"amount"`
	StartDate    string  `json:"start_date" db:"start_date"`
	Status       string  `json:"status" db:"status"`
}

// Complaint belongs to one customer and one loan. ResolvedAt is empty while unresolved.
type Complaint struct {
	ID            int64  `json:"id" db:"id"`
	CustomerID    int64  `json:"customer_id" db:"customer_id"`
	LoanID        int64  `json:"loan_id" db:"loan_id"`
	ComplaintType string `json:"complaint_type" db:"complaint_type"`
	Description   string `json:"description" db:"description"`
	Status        string `json:"status" db:"status"`
	CreatedAt     string `json:"created_at" db:"created_at"`
	ResolvedAt    string `json:"resolved_at,omitempty" db:"resolved_at"`
}

// SLARule maps a product and complaint type to the maximum resolution days.
type SLARule struct {
	ID                int64  `json:"id" db:"id"`
	ProductType       string `json:"product_type" db:"product_type"`
	ComplaintType     string `json:"complaint_type" db:"complaint_type"`
	MaxResolutionDays int    `json:"max_resolution_days" db:"max_resolution_days"`
}

// ForeclosureRule maps a loan and interest type to foreclosure terms.
type ForeclosureRule struct {
	ID                 int64   `json:"id" db:"id"`
	LoanType           string  `json:"loan_type" db:"loan_type"`
	InterestType       string  `json:"interest_type" db:"interest_type"`
	ForeclosureAllowed bool    `json:"foreclosure_allowed" db:"foreclosure_allowed"`
	ChargesPercentage  float64 `json:"charges_percentage" db:"charges_percentage"`
	RuleReference      string  `json:"rule_reference" db:"rule_reference"`
}

// RegulatoryDocument is a row of the documents table. It is seeded but not
// consulted by the retrieval flow.
type RegulatoryDocument struct {
	ID            int64  `json:"id" db:"id"`
	DocName       string `json:"doc_name" db:"doc_name"`
	DocType       string `json:"doc_type" db:"doc_type"`
	Source        string `json:"source" db:"source"`
	EffectiveDate string `json:"effective_date" db:"effective_date"`
}
