package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/models"
)

// ErrWriteStatement is returned when SQLite reports that a statement would modify the database.
var ErrWriteStatement = errors.New("statement is not read-only")

// ReadOnlyExecutor runs statements on a read-only connection opened for each call.
// The connection is closed on every exit path.
type ReadOnlyExecutor struct {
	path   string
	logger *zap.Logger
}

// ExecutorOption configures a ReadOnlyExecutor.
type ExecutorOption func(*ReadOnlyExecutor)

// WithExecutorLogger sets a logger for debug output.
func WithExecutorLogger(l *zap.Logger) ExecutorOption {
	return func(e *ReadOnlyExecutor) { e.logger = l }
}

// NewReadOnlyExecutor returns an executor for the database file at dbPath.
// The file must already exist.
func NewReadOnlyExecutor(dbPath string, opts ...ExecutorOption) (*ReadOnlyExecutor, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: database %s does not exist (run setup and seed first)", models.ErrConfigurationMissing, dbPath)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: database path %s is a directory", models.ErrConfigurationMissing, dbPath)
	}
	e := &ReadOnlyExecutor{path: dbPath}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Query runs stmt and returns column names in statement order and every row.
// []byte values are returned as strings.
func (e *ReadOnlyExecutor) Query(ctx context.Context, stmt string) (*models.QueryResult, error) {
	start := time.Now()
	db, err := sql.Open("sqlite3", readOnlyDSN(e.path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	defer conn.Close()

	if err := checkReadOnly(conn, stmt); err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	if e.logger != nil {
		e.logger.Debug("query executed",
			zap.Int("rows", len(result.Rows)),
			zap.Duration("elapsed", time.Since(start)))
	}
	return result, nil
}

// Tables describes the tables visible through a read-only connection.
func (e *ReadOnlyExecutor) Tables(ctx context.Context) ([]TableInfo, error) {
	db, err := sql.Open("sqlite3", readOnlyDSN(e.path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	return describeTables(ctx, db)
}

func readOnlyDSN(path string) string {
	return fmt.Sprintf("file:%s?mode=ro&_query_only=true", path)
}

// checkReadOnly prepares stmt on the raw driver connection and asks SQLite whether
// executing it could write to the database.
func checkReadOnly(conn *sql.Conn, stmt string) error {
	return conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return nil
		}
		prepared, err := c.Prepare(stmt)
		if err != nil {
			return err
		}
		defer prepared.Close()
		if s, ok := prepared.(*sqlite3.SQLiteStmt); ok && !s.Readonly() {
			return ErrWriteStatement
		}
		return nil
	})
}

func scanAll(rows *sql.Rows) (*models.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := &models.QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
