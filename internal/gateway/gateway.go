// Package gateway runs the shared invocation pipeline: tenant resolution,
// configuration cascade, validation, dispatch, and envelope normalization.
// Every operation type flows through the same path; only its definition
// differs.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Dr-Olami/APAFlow/internal/dispatch"
	"github.com/Dr-Olami/APAFlow/internal/envelope"
	"github.com/Dr-Olami/APAFlow/internal/market"
	"github.com/Dr-Olami/APAFlow/internal/operation"
	"github.com/Dr-Olami/APAFlow/internal/storage"
	"github.com/Dr-Olami/APAFlow/internal/validate"
)

// Source tags the execution context block on outbound requests.
const Source = "apaflow-node"

// Gateway is the multi-tenant invocation pipeline. Invocations are
// independent, stateless units of work; the only shared state is the
// immutable catalog and registry.
type Gateway struct {
	catalog    *market.Catalog
	registry   *operation.Registry
	dispatcher *dispatch.Dispatcher
	validator  *validate.Validator
	audit      storage.AuditStore
	logger     *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway) error

// WithCatalog injects the region catalog.
func WithCatalog(catalog *market.Catalog) Option {
	return func(g *Gateway) error {
		g.catalog = catalog
		return nil
	}
}

// WithRegistry injects the operation registry.
func WithRegistry(registry *operation.Registry) Option {
	return func(g *Gateway) error {
		g.registry = registry
		return nil
	}
}

// WithDispatcher injects the backend dispatcher.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(g *Gateway) error {
		g.dispatcher = d
		return nil
	}
}

// WithAuditStore enables best-effort invocation auditing.
func WithAuditStore(store storage.AuditStore) Option {
	return func(g *Gateway) error {
		g.audit = store
		return nil
	}
}

// WithLogger sets the gateway logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// New creates a Gateway with the given options. A dispatcher is required;
// catalog and registry default to the built-in tables.
func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{logger: slog.Default()}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if g.dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required (use WithDispatcher)")
	}
	if g.catalog == nil {
		catalog, err := market.NewCatalog("")
		if err != nil {
			return nil, fmt.Errorf("default catalog: %w", err)
		}
		g.catalog = catalog
	}
	if g.registry == nil {
		g.registry = operation.NewRegistry()
	}
	g.validator = validate.New(g.catalog)

	return g, nil
}

// Catalog returns the injected region catalog.
func (g *Gateway) Catalog() *market.Catalog { return g.catalog }

// Registry returns the injected operation registry.
func (g *Gateway) Registry() *operation.Registry { return g.registry }

// Invoke runs one invocation through the pipeline and always returns a
// well-formed envelope; no failure propagates as an error.
func (g *Gateway) Invoke(ctx context.Context, rawType string, in operation.Inputs) envelope.Envelope {
	opType, err := operation.ParseType(rawType)
	if err != nil {
		return envelope.ValidationFailure([]string{err.Error()}, "")
	}
	def, ok := g.registry.Lookup(opType)
	if !ok {
		return envelope.ValidationFailure([]string{fmt.Sprintf("operation type %q is not registered", opType)}, "")
	}

	res := g.validator.Validate(def, in)
	tenantID := res.Sanitized[operation.FieldTenantID]

	if !res.Valid {
		g.logger.Info("invocation rejected",
			slog.String("operation", string(opType)),
			slog.String("tenant_id", tenantID),
			slog.Int("errors", len(res.Errors)))
		env := envelope.ValidationFailure(res.Errors, tenantID)
		g.record(ctx, uuid.New().String(), tenantID, def, "", env)
		return env
	}

	overrides, region := g.callerOverrides(in, res.Sanitized)
	effective := g.catalog.Merge(def.Defaults(), region, overrides)

	invocationID := uuid.New().String()
	outcome := g.dispatcher.Dispatch(ctx, dispatch.Request{
		Path:          def.Path,
		Endpoint:      res.Sanitized[operation.FieldAPIURL],
		TenantID:      tenantID,
		Credential:    strings.TrimSpace(in[operation.FieldAPIKey]),
		Timeout:       def.Timeout(),
		Configuration: effective,
		Input:         inputPayload(def, in),
		InvocationID:  invocationID,
		Source:        Source,
	})

	env := envelope.FromOutcome(outcome, tenantID, effective)
	g.logger.Info("invocation completed",
		slog.String("operation", string(opType)),
		slog.String("tenant_id", tenantID),
		slog.String("invocation_id", invocationID),
		slog.Bool("success", env.Success),
		slog.Int("attempts", outcome.Attempts),
		slog.Duration("duration", outcome.ExecutionTime))

	g.record(ctx, invocationID, tenantID, def, regionString(effective), env)
	return env
}

// callerOverrides builds the override layer for the cascade: the parsed
// configuration object with the market config object applied on top, and
// the region selected for regional defaults.
func (g *Gateway) callerOverrides(in operation.Inputs, sanitized map[string]string) (map[string]any, string) {
	overrides := make(map[string]any)
	for k, v := range parseObject(in[operation.FieldConfiguration]) {
		overrides[k] = v
	}
	marketCfg := parseObject(in[operation.FieldMarketConfig])
	for k, v := range marketCfg {
		overrides[k] = v
	}

	region := sanitized[operation.FieldRegion]
	if region == "" {
		if r, ok := marketCfg[operation.FieldRegion].(string); ok {
			region = strings.ToLower(strings.TrimSpace(r))
		}
	}
	// The region key itself is owned by the cascade, not the override layer.
	delete(overrides, operation.FieldRegion)

	return overrides, region
}

// inputPayload assembles the operation input block from the declared fields,
// excluding configuration layers, which travel separately.
func inputPayload(def operation.Definition, in operation.Inputs) map[string]any {
	payload := make(map[string]any)
	for _, f := range def.Fields {
		if f.Name == operation.FieldConfiguration || f.Name == operation.FieldMarketConfig {
			continue
		}
		raw := strings.TrimSpace(in[f.Name])
		if raw == "" {
			continue
		}
		if f.JSON {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err == nil {
				payload[f.Name] = v
			}
			continue
		}
		payload[f.Name] = raw
	}
	return payload
}

// record writes the audit row, best-effort. Audit failures are logged and
// never affect the envelope.
func (g *Gateway) record(ctx context.Context, invocationID, tenantID string, def operation.Definition, region string, env envelope.Envelope) {
	if g.audit == nil {
		return
	}
	inv := &storage.Invocation{
		ID:         invocationID,
		TenantID:   tenantID,
		Operation:  string(def.Type),
		Region:     region,
		Success:    env.Success,
		ErrorCode:  env.ErrorCode,
		DurationMs: env.ExecutionTimeMs,
	}
	if err := g.audit.SaveInvocation(ctx, inv); err != nil {
		g.logger.Error("failed to audit invocation",
			slog.String("invocation_id", invocationID),
			slog.String("error", err.Error()))
	}
}

func parseObject(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

func regionString(effective map[string]any) string {
	if r, ok := effective["region"].(string); ok {
		return r
	}
	return ""
}
