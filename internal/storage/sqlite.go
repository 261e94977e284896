package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/sqlrag/internal/models"
)

// Table names of the fintech schema, in creation order.
var SchemaTables = []string{"customers", "loans", "complaints", "sla_rules", "foreclosure_rules", "documents"}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath with foreign keys enforced.
// Parent directories are created if they do not exist. Tables are not created; call CreateTables.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// CreateTables creates the six schema tables if they do not exist.
func (s *SQLiteStore) CreateTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS loans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER,
		loan_type TEXT CHECK (loan_type IN ('home_loan', 'personal_loan')),
		interest_type TEXT CHECK (interest_type IN ('fixed', 'floating')),
		amount REAL,
		start_date DATE,
		status TEXT,
		FOREIGN KEY (customer_id) REFERENCES customers(id)
	);

	CREATE TABLE IF NOT EXISTS complaints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER,
		loan_id INTEGER,
		complaint_type TEXT,
		description TEXT,
		status TEXT CHECK (status IN ('open', 'in_progress', 'resolved')),
		created_at DATE,
		resolved_at DATE,
		FOREIGN KEY (customer_id) REFERENCES customers(id),
		FOREIGN KEY (loan_id) REFERENCES loans(id)
	);

	CREATE TABLE IF NOT EXISTS sla_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_type TEXT,
		complaint_type TEXT,
		max_resolution_days INTEGER
	);

	CREATE TABLE IF NOT EXISTS foreclosure_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		loan_type TEXT,
		interest_type TEXT,
		foreclosure_allowed BOOLEAN,
		charges_percentage REAL,
		rule_reference TEXT
	);

	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_name TEXT,
		doc_type TEXT,
		source TEXT,
		effective_date DATE
	);

	CREATE INDEX IF NOT EXISTS idx_loans_customer_id ON loans(customer_id);
	CREATE INDEX IF NOT EXISTS idx_complaints_loan_id ON complaints(loan_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// InsertCustomer inserts a customer and sets its ID.
func (s *SQLiteStore) InsertCustomer(ctx context.Context, c *models.Customer) error {
	return s.insert(ctx, &c.ID,
		`INSERT INTO customers (name, email) VALUES (?, ?)`,
		c.Name, nullString(c.Email))
}

// InsertLoan inserts a loan and sets its ID.
func (s *SQLiteStore) InsertLoan(ctx context.Context, l *models.Loan) error {
	return s.insert(ctx, &l.ID,
		`INSERT INTO loans (customer_id, loan_type, interest_type, amount, start_date, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.CustomerID, l.LoanType, l.InterestType, l.Amount, l.StartDate, l.Status)
}

// InsertComplaint inserts a complaint and sets its ID. An empty ResolvedAt is stored as NULL.
func (s *SQLiteStore) InsertComplaint(ctx context.Context, c *models.Complaint) error {
	return s.insert(ctx, &c.ID,
		`INSERT INTO complaints (customer_id, loan_id, complaint_type, description, status, created_at, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.CustomerID, c.LoanID, c.ComplaintType, c.Description, c.Status, c.CreatedAt, nullString(c.ResolvedAt))
}

// InsertSLARule inserts an SLA rule and sets its ID.
func (s *SQLiteStore) InsertSLARule(ctx context.Context, r *models.SLARule) error {
	return s.insert(ctx, &r.ID,
		`INSERT INTO sla_rules (product_type, complaint_type, max_resolution_days) VALUES (?, ?, ?)`,
		r.ProductType, r.ComplaintType, r.MaxResolutionDays)
}

// InsertForeclosureRule inserts a foreclosure rule and sets its ID.
func (s *SQLiteStore) InsertForeclosureRule(ctx context.Context, r *models.ForeclosureRule) error {
	return s.insert(ctx, &r.ID,
		`INSERT INTO foreclosure_rules (loan_type, interest_type, foreclosure_allowed, charges_percentage, rule_reference)
		 VALUES (?, ?, ?, ?, ?)`,
		r.LoanType, r.InterestType, r.ForeclosureAllowed, r.ChargesPercentage, r.RuleReference)
}

// InsertDocument inserts a regulatory document record and sets its ID.
func (s *SQLiteStore) InsertDocument(ctx context.Context, d *models.RegulatoryDocument) error {
	return s.insert(ctx, &d.ID,
		`INSERT INTO documents (doc_name, doc_type, source, effective_date) VALUES (?, ?, ?, ?)`,
		d.DocName, d.DocType, d.Source, d.EffectiveDate)
}

func (s *SQLiteStore) insert(ctx context.Context, id *int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.LastInsertId()
	if err != nil {
		return err
	}
	*id = n
	return nil
}

// CountRows returns the number of rows in a schema table.
func (s *SQLiteStore) CountRows(ctx context.Context, table string) (int64, error) {
	if !isSchemaTable(table) {
		return 0, fmt.Errorf("unknown table: %s", table)
	}
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	return count, err
}

// Tables returns the user tables present in the database with their columns, ordered by name.
func (s *SQLiteStore) Tables(ctx context.Context) ([]TableInfo, error) {
	return describeTables(ctx, s.db)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func describeTables(ctx context.Context, q queryer) ([]TableInfo, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		cols, err := describeColumns(ctx, q, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, TableInfo{Name: name, Columns: cols})
	}
	return tables, nil
}

func describeColumns(ctx context.Context, q queryer, table string) ([]ColumnInfo, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, type, "notnull", pk FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer rows.Close()
	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		var notNull, pk int
		if err := rows.Scan(&c.Name, &c.Type, &notNull, &pk); err != nil {
			return nil, err
		}
		c.NotNull = notNull != 0
		c.PrimaryKey = pk != 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func isSchemaTable(name string) bool {
	for _, t := range SchemaTables {
		if t == name {
			return true
		}
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
