// Package storage defines the invocation audit trail interface.
// The gateway records one row per invocation, best-effort; persistence of
// workflow state itself belongs to the downstream backend.
package storage

import (
	"context"
	"time"
)

// Invocation is one audited gateway call.
type Invocation struct {
	ID         string
	TenantID   string
	Operation  string
	Region     string
	Success    bool
	ErrorCode  string
	DurationMs int64
	CreatedAt  time.Time
}

// AuditStore persists and queries invocation records.
type AuditStore interface {
	// SaveInvocation records one invocation.
	SaveInvocation(ctx context.Context, inv *Invocation) error

	// ListInvocations returns the most recent invocations for a tenant,
	// newest first. An empty tenantID lists across all tenants.
	ListInvocations(ctx context.Context, tenantID string, limit int) ([]*Invocation, error)

	// Close releases the underlying resources.
	Close() error
}
