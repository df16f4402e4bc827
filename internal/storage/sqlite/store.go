// Package sqlite is the SQLite-backed invocation audit store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Dr-Olami/APAFlow/internal/scope"
	"github.com/Dr-Olami/APAFlow/internal/storage"
)

// Store is a SQLite implementation of AuditStore.
type Store struct {
	db *sql.DB
}

var _ storage.AuditStore = (*Store)(nil)

// New opens (or creates) the audit database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			region TEXT,
			success INTEGER NOT NULL,
			error_code TEXT,
			duration_ms INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_tenant ON invocations(tenant_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// SaveInvocation records one invocation.
func (s *Store) SaveInvocation(ctx context.Context, inv *storage.Invocation) error {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (id, tenant_id, operation, region, success, error_code, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TenantID, inv.Operation, inv.Region,
		boolToInt(inv.Success), inv.ErrorCode, inv.DurationMs, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save invocation: %w", err)
	}
	return nil
}

// ListInvocations returns the newest invocations, tenant-scoped via the
// query rewriter so the tenant value is bound, never interpolated.
func (s *Store) ListInvocations(ctx context.Context, tenantID string, limit int) ([]*storage.Invocation, error) {
	if limit <= 0 {
		limit = 50
	}

	base := `SELECT id, tenant_id, operation, region, success, error_code, duration_ms, created_at
		FROM invocations ORDER BY created_at DESC LIMIT ?`
	query, args := scope.Scope(base, tenantID)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var invocations []*storage.Invocation
	for rows.Next() {
		var inv storage.Invocation
		var success int
		var region, errorCode sql.NullString
		if err := rows.Scan(&inv.ID, &inv.TenantID, &inv.Operation, &region,
			&success, &errorCode, &inv.DurationMs, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		inv.Region = region.String
		inv.ErrorCode = errorCode.String
		inv.Success = success != 0
		invocations = append(invocations, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invocations: %w", err)
	}

	return invocations, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
