// Package e2e runs questions against a seeded database through the whole retrieve, generate, check and execute path.
package e2e

import "fmt"

// Outcome is what a question is expected to produce.
type Outcome int

const (
	// Answered means rows come back.
	Answered Outcome = iota
	// NoAnswer means the model declined with the sentinel.
	NoAnswer
	// Rejected means the generated statement fails the safety check.
	Rejected
)

// QuestionCase pairs a question with the SQL the scripted model returns for it and
// what the orchestrator must do with that SQL.
type QuestionCase struct {
	Question string
	SQL      string
	Outcome  Outcome
	// Columns are the expected result columns, in order.
	Columns []string
	// ReferenceCount is a COUNT query whose single value must equal the number of rows returned.
	ReferenceCount string
	Description    string
}

// Corpus holds the question cases.
type Corpus struct {
	Cases []QuestionCase
}

// BuildCorpus returns question cases whose expectations hold for any seed, since
// complaint types and statuses are random but loans and rules are fixed.
func BuildCorpus() *Corpus {
	cases := []QuestionCase{
		{
			Question: "Provide all open home loan complaints",
			SQL: "SELECT c.id, c.complaint_type, c.status FROM complaints c " +
				"JOIN loans l ON c.loan_id = l.id WHERE c.status = 'open' AND l.loan_type = 'home_loan'",
			Columns: []string{"id", "complaint_type", "status"},
			ReferenceCount: "SELECT COUNT(c.id) FROM complaints c JOIN loans l ON c.loan_id = l.id " +
				"WHERE c.status = 'open' AND l.loan_type = 'home_loan'",
		},
		{
			Question: "Which customers have floating rate home loans?",
			SQL: "SELECT DISTINCT cu.name FROM customers cu JOIN loans l ON l.customer_id = cu.id " +
				"WHERE l.loan_type = 'home_loan' AND l.interest_type = 'floating' ORDER BY cu.name",
			Columns:        []string{"name"},
			ReferenceCount: "SELECT COUNT(DISTINCT customer_id) FROM loans WHERE loan_type = 'home_loan' AND interest_type = 'floating'",
		},
		{
			Question:       "What are the foreclosure charges for fixed rate home loans?",
			SQL:            "SELECT charges_percentage, rule_reference FROM foreclosure_rules WHERE loan_type = 'home_loan' AND interest_type = 'fixed'",
			Columns:        []string{"charges_percentage", "rule_reference"},
			ReferenceCount: "SELECT COUNT(id) FROM foreclosure_rules WHERE loan_type = 'home_loan' AND interest_type = 'fixed'",
		},
		{
			Question:       "How many loans are active?",
			SQL:            "SELECT COUNT(id) AS active_loans FROM loans WHERE status = 'active';",
			Columns:        []string{"active_loans"},
			ReferenceCount: "SELECT 1",
		},
		{
			Question: "Which complaints breached their SLA?",
			SQL: "SELECT c.id, c.complaint_type FROM complaints c JOIN loans l ON c.loan_id = l.id " +
				"JOIN sla_rules s ON s.product_type = l.loan_type AND s.complaint_type = c.complaint_type " +
				"WHERE c.status != 'resolved' AND julianday('now') - julianday(c.created_at) > s.max_resolution_days",
			Columns: []string{"id", "complaint_type"},
			ReferenceCount: "SELECT COUNT(c.id) FROM complaints c JOIN loans l ON c.loan_id = l.id " +
				"JOIN sla_rules s ON s.product_type = l.loan_type AND s.complaint_type = c.complaint_type " +
				"WHERE c.status != 'resolved' AND julianday('now') - julianday(c.created_at) > s.max_resolution_days",
		},
		{
			Question:       "List RBI regulatory documents",
			SQL:            "SELECT doc_name, effective_date FROM documents WHERE doc_type = 'rbi'",
			Columns:        []string{"doc_name", "effective_date"},
			ReferenceCount: "SELECT COUNT(id) FROM documents WHERE doc_type = 'rbi'",
		},
		{
			Question: "What is the weather in Mumbai?",
			SQL:      "-- CANNOT_GENERATE_SQL",
			Outcome:  NoAnswer,
		},
		{
			Question: "Delete all closed loans",
			SQL:      "DELETE FROM loans WHERE status = 'closed'",
			Outcome:  Rejected,
		},
		{
			Question: "Show every loan column",
			SQL:      "SELECT * FROM loans",
			Outcome:  Rejected,
		},
		{
			Question: "Count loans then drop complaints",
			SQL:      "SELECT COUNT(id) FROM loans; DROP TABLE complaints",
			Outcome:  Rejected,
		},
	}
	for i := range cases {
		if cases[i].Description == "" {
			cases[i].Description = fmt.Sprintf("case %02d %s", i+1, cases[i].Question)
		}
	}
	return &Corpus{Cases: cases}
}
