// Package tenant resolves raw tenant identifiers into validated,
// namespace-scoped tenant contexts.
package tenant

import (
	"fmt"
	"regexp"
	"strings"
)

// NamespacePrefix is prepended to every derived storage namespace.
const NamespacePrefix = "tenant_"

// canonicalUUID matches the 8-4-4-4-12 UUID grammar with a version nibble
// in 1..5 and an RFC 4122 variant nibble.
var canonicalUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// Context is the tenant identity for a single invocation.
// It is constructed fresh per call and carries no mutable state.
type Context struct {
	// ID is the canonical lowercase UUID of the tenant.
	ID string
	// Namespace is the derived storage/schema name for the tenant.
	Namespace string
	// Isolated reports whether a tenant identifier was present.
	Isolated bool
}

// ErrMissingTenant indicates a required tenant identifier was absent.
type ErrMissingTenant struct{}

func (ErrMissingTenant) Error() string {
	return "tenant ID is required for multi-tenant operations"
}

// ErrMalformedTenant indicates a tenant identifier that does not match the
// canonical UUID grammar.
type ErrMalformedTenant struct {
	Raw string
}

func (e ErrMalformedTenant) Error() string {
	return fmt.Sprintf("tenant ID %q is not a valid UUID", e.Raw)
}

// Resolve validates a raw tenant identifier and derives its context.
// When require is false an empty identifier yields a non-isolated context.
// Resolve is pure: no I/O, no randomness.
func Resolve(raw string, require bool) (Context, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if require {
			return Context{}, ErrMissingTenant{}
		}
		return Context{}, nil
	}

	if !canonicalUUID.MatchString(raw) {
		return Context{}, ErrMalformedTenant{Raw: raw}
	}

	id := strings.ToLower(raw)
	return Context{
		ID:        id,
		Namespace: NamespacePrefix + strings.ReplaceAll(id, "-", "_"),
		Isolated:  true,
	}, nil
}
