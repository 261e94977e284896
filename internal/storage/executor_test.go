package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/sqlrag/internal/models"
)

func TestReadOnlyExecutor_RoundTrip(t *testing.T) {
	_, path := newSeededStore(t)
	exec, err := NewReadOnlyExecutor(path)
	if err != nil {
		t.Fatal(err)
	}
	res, err := exec.Query(context.Background(), "SELECT id, status FROM loans WHERE status = 'active'")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Columns) != 2 || res.Columns[0] != "id" || res.Columns[1] != "status" {
		t.Fatalf("columns = %v, want [id status]", res.Columns)
	}
	if len(res.Rows) != 9 {
		t.Errorf("active loans = %d, want 9", len(res.Rows))
	}
	found := false
	for _, row := range res.Rows {
		if row[0] == int64(1) && row[1] == "active" {
			found = true
		}
	}
	if !found {
		t.Errorf("rows %v do not include (1, active)", res.Rows)
	}
}

func TestReadOnlyExecutor_RejectsWrites(t *testing.T) {
	store, path := newSeededStore(t)
	exec, err := NewReadOnlyExecutor(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	before, _ := store.CountRows(ctx, "loans")

	for _, stmt := range []string{
		"DELETE FROM loans WHERE id = 1",
		"UPDATE loans SET status = 'closed'",
		"DROP TABLE loans",
	} {
		if _, err := exec.Query(ctx, stmt); err == nil {
			t.Errorf("%q: expected error", stmt)
		}
	}

	after, _ := store.CountRows(ctx, "loans")
	if before != after {
		t.Errorf("loans count changed: %d -> %d", before, after)
	}
}

func TestReadOnlyExecutor_WriteDetectedBySQLite(t *testing.T) {
	_, path := newSeededStore(t)
	exec, err := NewReadOnlyExecutor(path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = exec.Query(context.Background(), "INSERT INTO sla_rules (product_type) VALUES ('x')")
	if !errors.Is(err, ErrWriteStatement) {
		t.Errorf("err = %v, want ErrWriteStatement", err)
	}
}

func TestReadOnlyExecutor_UnknownColumn(t *testing.T) {
	_, path := newSeededStore(t)
	exec, err := NewReadOnlyExecutor(path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = exec.Query(context.Background(), "SELECT nonexistent FROM loans")
	if err == nil || !strings.Contains(err.Error(), "nonexistent") {
		t.Errorf("err = %v, want store error naming the column", err)
	}
}

func TestReadOnlyExecutor_MissingDatabase(t *testing.T) {
	_, err := NewReadOnlyExecutor(filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, models.ErrConfigurationMissing) {
		t.Errorf("err = %v, want ErrConfigurationMissing", err)
	}
}

func TestReadOnlyExecutor_EmptyResultHasColumns(t *testing.T) {
	_, path := newSeededStore(t)
	exec, err := NewReadOnlyExecutor(path)
	if err != nil {
		t.Fatal(err)
	}
	res, err := exec.Query(context.Background(), "SELECT name, email FROM customers WHERE id = -1")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Columns) != 2 || len(res.Rows) != 0 {
		t.Errorf("got columns=%v rows=%v", res.Columns, res.Rows)
	}
}

func TestReadOnlyExecutor_Tables(t *testing.T) {
	_, path := newSeededStore(t)
	exec, err := NewReadOnlyExecutor(path)
	if err != nil {
		t.Fatal(err)
	}
	tables, err := exec.Tables(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, tbl := range tables {
		if tbl.Name == "loans" {
			if len(tbl.Columns) != 7 {
				t.Errorf("loans columns = %d, want 7", len(tbl.Columns))
			}
			return
		}
	}
	t.Errorf("loans not found in %v", TableNames(tables))
}
