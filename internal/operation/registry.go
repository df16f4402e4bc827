package operation

import (
	"fmt"
	"sort"
	"strings"
)

// AdminActions is the closed set of tenant-administration actions.
var AdminActions = []string{"provision", "suspend", "reactivate", "deprovision"}

// Registry holds the definition for every operation type. It is built once
// at startup and read-only afterwards.
type Registry struct {
	defs map[Type]Definition
}

// NewRegistry constructs the registry with the built-in operation set.
func NewRegistry() *Registry {
	defs := make(map[Type]Definition)
	for _, d := range builtinDefinitions() {
		defs[d.Type] = d
	}
	return &Registry{defs: defs}
}

// Lookup returns the definition for an operation type.
func (r *Registry) Lookup(t Type) (Definition, bool) {
	d, ok := r.defs[t]
	return d, ok
}

// Types lists registered operation types in sorted order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func builtinDefinitions() []Definition {
	return []Definition{
		{
			Type:  TaskAutomation,
			Path:  "/v1/automation/execute",
			Class: ClassStandard,
			Fields: []Field{
				{Name: FieldConfiguration, JSON: true},
				{Name: FieldInputData, JSON: true},
				{Name: FieldMarketConfig, JSON: true, Optional: true},
			},
			Defaults: func() map[string]any {
				return map[string]any{
					"max_retries":    3,
					"error_handling": "retry_with_fallback",
					"tools":          []string{"http_request", "data_transform", "notification"},
				}
			},
			NewConfig: func() Config { return &AutomationConfig{} },
		},
		{
			Type:  MentorshipGuidance,
			Path:  "/v1/mentor/ask",
			Class: ClassOrchestration,
			Fields: []Field{
				{Name: FieldQuestion},
				{Name: FieldConfiguration, JSON: true, Optional: true},
				{Name: FieldBusinessContext, JSON: true, Optional: true},
				{Name: FieldMarketConfig, JSON: true, Optional: true},
			},
			Defaults: func() map[string]any {
				return map[string]any{
					"expertise_level": "intermediate",
					"knowledge_base":  "african_sme_best_practices",
					"include_sources": true,
				}
			},
			NewConfig: func() Config { return &MentorshipConfig{} },
			Check: func(in Inputs) []string {
				if strings.TrimSpace(in[FieldQuestion]) == "" {
					return []string{"question is required for mentorship-guidance operations"}
				}
				return nil
			},
		},
		{
			Type:  Supervision,
			Path:  "/v1/supervisor/coordinate",
			Class: ClassOrchestration,
			Fields: []Field{
				{Name: FieldWorkflowConfig, JSON: true, Optional: true},
				{Name: FieldAgentCoordination, JSON: true, Optional: true},
				{Name: FieldConfiguration, JSON: true, Optional: true},
				{Name: FieldMarketConfig, JSON: true, Optional: true},
			},
			Defaults: func() map[string]any {
				return map[string]any{
					"escalation_threshold":     0.75,
					"max_concurrent_workflows": 5,
					"require_approval":         false,
				}
			},
			NewConfig: func() Config { return &SupervisionConfig{} },
			Check: func(in Inputs) []string {
				if strings.TrimSpace(in[FieldWorkflowConfig]) == "" &&
					strings.TrimSpace(in[FieldAgentCoordination]) == "" {
					return []string{"at least one of workflow_config or agent_coordination is required for supervision operations"}
				}
				return nil
			},
		},
		{
			Type:  TenantAdministration,
			Path:  "/v1/admin/tenants",
			Class: ClassLookup,
			Fields: []Field{
				{Name: FieldAdminAction},
				{Name: FieldConfiguration, JSON: true, Optional: true},
			},
			Defaults: func() map[string]any {
				return map[string]any{
					"audit_log": true,
				}
			},
			NewConfig: func() Config { return &AdministrationConfig{} },
			Check: func(in Inputs) []string {
				action := strings.TrimSpace(in[FieldAdminAction])
				if action == "" {
					return []string{"admin_action is required for tenant-administration operations"}
				}
				for _, known := range AdminActions {
					if action == known {
						return nil
					}
				}
				return []string{fmt.Sprintf("admin_action %q is not supported (expected one of: %s)",
					action, strings.Join(AdminActions, ", "))}
			},
		},
		{
			Type:  MarketIntegration,
			Path:  "/v1/integrations/execute",
			Class: ClassStandard,
			Fields: []Field{
				{Name: FieldIntegrationConfig, JSON: true},
				{Name: FieldTransactionData, JSON: true},
				{Name: FieldMarketConfig, JSON: true, Optional: true},
			},
			Defaults: func() map[string]any {
				return map[string]any{
					"sandbox_mode": true,
					"providers":    []string{"mpesa", "paystack", "flutterwave"},
				}
			},
			NewConfig: func() Config { return &IntegrationConfig{} },
		},
		{
			Type:  WorkflowExecution,
			Path:  "/v1/workflows/execute",
			Class: ClassOrchestration,
			Fields: []Field{
				{Name: FieldWorkflowDef, JSON: true},
				{Name: FieldInputData, JSON: true, Optional: true},
				{Name: FieldConfiguration, JSON: true, Optional: true},
				{Name: FieldMarketConfig, JSON: true, Optional: true},
			},
			Defaults: func() map[string]any {
				return map[string]any{
					"max_steps": 50,
					"fail_fast": true,
				}
			},
			NewConfig: func() Config { return &WorkflowConfig{} },
		},
	}
}
