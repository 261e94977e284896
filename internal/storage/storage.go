// Package storage defines the relational schema store and its read-only query executor.
package storage

import (
	"context"

	"github.com/hyperjump/sqlrag/internal/models"
)

// Store owns the fintech schema and exposes create and insert operations.
type Store interface {
	CreateTables(ctx context.Context) error

	InsertCustomer(ctx context.Context, c *models.Customer) error
	InsertLoan(ctx context.Context, l *models.Loan) error
	InsertComplaint(ctx context.Context, c *models.Complaint) error
	InsertSLARule(ctx context.Context, r *models.SLARule) error
	InsertForeclosureRule(ctx context.Context, r *models.ForeclosureRule) error
	InsertDocument(ctx context.Context, d *models.RegulatoryDocument) error

	// Stats
	CountRows(ctx context.Context, table string) (int64, error)
	Tables(ctx context.Context) ([]TableInfo, error)

	Close() error
}

// Executor runs a single read-only statement and returns its full result set.
type Executor interface {
	Query(ctx context.Context, sql string) (*models.QueryResult, error)
}

// TableInfo describes one table of the schema.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableNames returns the names of tables, in order.
func TableNames(tables []TableInfo) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
