package storage

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/hyperjump/sqlrag/internal/models"
)

const dateLayout = "2006-01-02"

// ComplaintTypes are the complaint categories used by the generator.
var ComplaintTypes = []string{"delay", "interest_rate", "foreclosure_charges", "documentation", "mis_selling"}

var complaintStatuses = []string{models.ComplaintOpen, models.ComplaintInProgress, models.ComplaintResolved}

// SeedResult reports how many rows were inserted per table.
type SeedResult struct {
	Skipped bool             `json:"skipped"`
	Rows    map[string]int64 `json:"rows"`
}

// Seeder inserts the synthetic fintech data set.
type Seeder struct {
	store Store
	rng   *rand.Rand
	now   func() time.Time
}

// NewSeeder returns a seeder whose random choices are reproducible for a given seed.
func NewSeeder(store Store, seed int64) *Seeder {
	return &Seeder{store: store, rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

// Seed inserts customers, loans, complaints, rules, and regulatory documents.
// When customers already exist and force is false, nothing is inserted.
func (s *Seeder) Seed(ctx context.Context, force bool) (*SeedResult, error) {
	if !force {
		n, err := s.store.CountRows(ctx, "customers")
		if err != nil {
			return nil, fmt.Errorf("failed to count customers: %w", err)
		}
		if n > 0 {
			return &SeedResult{Skipped: true}, nil
		}
	}
	res := &SeedResult{Rows: make(map[string]int64)}

	customers := seedCustomers()
	for _, c := range customers {
		if err := s.store.InsertCustomer(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to insert customer %s: %w", c.Name, err)
		}
		res.Rows["customers"]++
	}

	loans := seedLoans(customers)
	for _, l := range loans {
		if err := s.store.InsertLoan(ctx, l); err != nil {
			return nil, fmt.Errorf("failed to insert loan: %w", err)
		}
		res.Rows["loans"]++
	}

	rules := seedSLARules()
	for _, r := range rules {
		if err := s.store.InsertSLARule(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to insert sla rule: %w", err)
		}
		res.Rows["sla_rules"]++
	}

	for _, c := range s.complaints(loans, rules) {
		if err := s.store.InsertComplaint(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to insert complaint: %w", err)
		}
		res.Rows["complaints"]++
	}

	for _, r := range seedForeclosureRules() {
		if err := s.store.InsertForeclosureRule(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to insert foreclosure rule: %w", err)
		}
		res.Rows["foreclosure_rules"]++
	}

	for _, d := range seedDocuments() {
		if err := s.store.InsertDocument(ctx, d); err != nil {
			return nil, fmt.Errorf("failed to insert document: %w", err)
		}
		res.Rows["documents"]++
	}
	return res, nil
}

func seedCustomers() []*models.Customer {
	names := []string{
		"Amit Sharma", "Priya Verma", "Rohit Mehta", "Sneha Iyer", "Vikas Patel",
		"Neha Gupta", "Anil Kumar", "Pooja Nair", "Rahul Singh", "Kavita Joshi",
	}
	out := make([]*models.Customer, len(names))
	for i, name := range names {
		first := strings.ToLower(strings.Fields(name)[0])
		out[i] = &models.Customer{Name: name, Email: first + "@gmail.com"}
	}
	return out
}

func seedLoans(customers []*models.Customer) []*models.Loan {
	rows := []struct {
		loanType, interest string
		amount             float64
		start, status      string
	}{
		{models.LoanTypeHome, models.InterestFloating, 5200000, "2021-05-10", "active"},
		{models.LoanTypeHome, models.InterestFixed, 4800000, "2020-03-15", "active"},
		{models.LoanTypeHome, models.InterestFloating, 6100000, "2019-08-01", "active"},
		{models.LoanTypePersonal, models.InterestFixed, 800000, "2022-01-20", "active"},
		{models.LoanTypeHome, models.InterestFloating, 4500000, "2023-02-11", "active"},
		{models.LoanTypeHome, models.InterestFixed, 7000000, "2018-11-09", "closed"},
		{models.LoanTypeHome, models.InterestFloating, 3900000, "2022-06-18", "active"},
		{models.LoanTypePersonal, models.InterestFixed, 500000, "2021-09-25", "active"},
		{models.LoanTypeHome, models.InterestFloating, 5600000, "2020-12-30", "active"},
		{models.LoanTypeHome, models.InterestFixed, 6200000, "2017-07-14", "active"},
	}
	out := make([]*models.Loan, len(rows))
	for i, r := range rows {
		out[i] = &models.Loan{
			CustomerID:   customers[i%len(customers)].ID,
			LoanType:     r.loanType,
			InterestType: r.interest,
			Amount:       r.amount,
			StartDate:    r.start,
			Status:       r.status,
		}
	}
	return out
}

// complaints raises one complaint per loan, created 5 to 45 days ago.
// Resolved complaints get a resolution date no later than today.
func (s *Seeder) complaints(loans []*models.Loan, rules []*models.SLARule) []*models.Complaint {
	today := s.now().UTC().Truncate(24 * time.Hour)
	out := make([]*models.Complaint, len(loans))
	for i, l := range loans {
		ctype := ComplaintTypes[s.rng.Intn(len(ComplaintTypes))]
		status := complaintStatuses[s.rng.Intn(len(complaintStatuses))]
		created := today.AddDate(0, 0, -(5 + s.rng.Intn(41)))
		c := &models.Complaint{
			CustomerID:    l.CustomerID,
			LoanID:        l.ID,
			ComplaintType: ctype,
			Description:   "Customer raised issue related to " + ComplaintTypes[(i+1)%len(ComplaintTypes)],
			Status:        status,
			CreatedAt:     created.Format(dateLayout),
		}
		if status == models.ComplaintResolved {
			window := int(today.Sub(created).Hours() / 24)
			if days := slaDays(rules, l.LoanType, ctype); days > 0 && days < window {
				window = days
			}
			c.ResolvedAt = created.AddDate(0, 0, 1+s.rng.Intn(window)).Format(dateLayout)
		}
		out[i] = c
	}
	return out
}

func slaDays(rules []*models.SLARule, product, complaintType string) int {
	for _, r := range rules {
		if r.ProductType == product && r.ComplaintType == complaintType {
			return r.MaxResolutionDays
		}
	}
	return 0
}

func seedSLARules() []*models.SLARule {
	return []*models.SLARule{
		{ProductType: models.LoanTypeHome, ComplaintType: "delay", MaxResolutionDays: 30},
		{ProductType: models.LoanTypeHome, ComplaintType: "interest_rate", MaxResolutionDays: 30},
		{ProductType: models.LoanTypeHome, ComplaintType: "foreclosure_charges", MaxResolutionDays: 30},
		{ProductType: models.LoanTypePersonal, ComplaintType: "delay", MaxResolutionDays: 15},
		{ProductType: models.LoanTypePersonal, ComplaintType: "mis_selling", MaxResolutionDays: 15},
	}
}

func seedForeclosureRules() []*models.ForeclosureRule {
	return []*models.ForeclosureRule{
		{LoanType: models.LoanTypeHome, InterestType: models.InterestFloating, ForeclosureAllowed: true, ChargesPercentage: 0.0, RuleReference: "RBI Circular 2023 - No charges on floating rate"},
		{LoanType: models.LoanTypeHome, InterestType: models.InterestFixed, ForeclosureAllowed: true, ChargesPercentage: 2.0, RuleReference: "Bank Policy - Fixed rate foreclosure"},
	}
}

func seedDocuments() []*models.RegulatoryDocument {
	return []*models.RegulatoryDocument{
		{DocName: "Home Loan Foreclosure Guidelines", DocType: "rbi", Source: "RBI Circular 2023", EffectiveDate: "2023-08-01"},
		{DocName: "Customer Complaint Handling", DocType: "rbi", Source: "RBI Ombudsman", EffectiveDate: "2022-04-01"},
		{DocName: "Insurance Claim Processing", DocType: "insurance", Source: "IRDAI Policy", EffectiveDate: "2021-01-15"},
	}
}
