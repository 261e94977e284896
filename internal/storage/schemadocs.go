package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tableNotes adds value domains and relationships that column types alone do not convey.
var tableNotes = map[string][]string{
	"customers": {
		"Each customer has an auto-assigned numeric id, a name, an email, and a creation timestamp.",
	},
	"loans": {
		"loans.customer_id references customers.id.",
		"loan_type is one of: 'home_loan', 'personal_loan'.",
		"interest_type is one of: 'fixed', 'floating'.",
		"status holds values such as 'active' or 'closed'.",
		"amount is the principal amount; start_date is an ISO date (YYYY-MM-DD).",
	},
	"complaints": {
		"complaints.customer_id references customers.id and complaints.loan_id references loans.id.",
		"status is one of: 'open', 'in_progress', 'resolved'.",
		"complaint_type is one of: 'delay', 'interest_rate', 'foreclosure_charges', 'documentation', 'mis_selling'.",
		"created_at and resolved_at are ISO dates; resolved_at is NULL until the complaint is resolved.",
		"To find complaints for a loan type, join complaints to loans on complaints.loan_id = loans.id.",
	},
	"sla_rules": {
		"sla_rules maps (product_type, complaint_type) to max_resolution_days.",
		"product_type uses the same values as loans.loan_type.",
	},
	"foreclosure_rules": {
		"foreclosure_rules maps (loan_type, interest_type) to foreclosure_allowed (1 or 0) and charges_percentage.",
		"rule_reference names the circular or policy the rule comes from.",
	},
	"documents": {
		"documents lists regulatory documents with doc_name, doc_type ('rbi' or 'insurance'), source, and effective_date.",
	},
}

// DescribeTable renders a plain-text description of a table suitable for retrieval grounding.
func DescribeTable(t TableInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", t.Name)
	b.WriteString("Columns:\n")
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "- %s.%s (%s", t.Name, c.Name, strings.ToUpper(c.Type))
		if c.PrimaryKey {
			b.WriteString(", primary key")
		}
		if c.NotNull {
			b.WriteString(", not null")
		}
		b.WriteString(")\n")
	}
	if notes := tableNotes[t.Name]; len(notes) > 0 {
		b.WriteString("Notes:\n")
		for _, n := range notes {
			b.WriteString("- " + n + "\n")
		}
	}
	return b.String()
}

// WriteSchemaDocs writes one <table>.txt description per table into dir and returns the paths written.
func WriteSchemaDocs(dir string, tables []TableInfo) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		p := filepath.Join(dir, t.Name+".txt")
		if err := os.WriteFile(p, []byte(DescribeTable(t)), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
