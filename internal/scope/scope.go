// Package scope rewrites SQL queries to add tenant isolation predicates.
// The tenant value is always bound as a query parameter, never interpolated
// into the query text.
package scope

import "regexp"

var (
	whereClause = regexp.MustCompile(`(?i)\bWHERE\b`)
	fromClause  = regexp.MustCompile(`(?i)\bFROM\b`)
	// tableEnd marks the first clause keyword that can follow a table
	// reference, which is where a synthesized WHERE must be inserted.
	tableEnd = regexp.MustCompile(`(?i)\b(GROUP\s+BY|ORDER\s+BY|HAVING|LIMIT|OFFSET)\b`)
)

// Scope injects a tenant predicate into the query and returns the rewritten
// query together with the arguments to bind for the injected placeholders.
// The injected placeholder always precedes any placeholders already in the
// query, so callers must pass the returned args ahead of their own.
//
// A query with a WHERE clause gets `tenant_id = ? AND` immediately after the
// keyword. A query with only a FROM clause gets a new `WHERE tenant_id = ?`
// after the table reference. An empty tenantID returns the query unchanged:
// isolation is opt-in at this layer.
func Scope(query, tenantID string) (string, []any) {
	if tenantID == "" {
		return query, nil
	}

	if loc := whereClause.FindStringIndex(query); loc != nil {
		rewritten := query[:loc[1]] + " tenant_id = ? AND" + query[loc[1]:]
		return rewritten, []any{tenantID}
	}

	loc := fromClause.FindStringIndex(query)
	if loc == nil {
		return query, nil
	}

	rest := query[loc[1]:]
	insert := len(query)
	if end := tableEnd.FindStringIndex(rest); end != nil {
		insert = loc[1] + end[0]
	}

	head := query[:insert]
	tail := query[insert:]
	if len(head) > 0 && head[len(head)-1] == ' ' {
		return head + "WHERE tenant_id = ? " + tail, []any{tenantID}
	}
	return head + " WHERE tenant_id = ?" + tail, []any{tenantID}
}
