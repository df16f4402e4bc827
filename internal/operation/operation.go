// Package operation defines the node operation taxonomy: one definition per
// operation type carrying its backend path, timeout class, built-in defaults,
// declared fields, and operation-specific validation rules. All operation
// types dispatch through the same pipeline; only their definitions differ.
package operation

import (
	"fmt"
	"time"
)

// Type identifies a node operation.
type Type string

const (
	TaskAutomation       Type = "task-automation"
	MentorshipGuidance   Type = "mentorship-guidance"
	Supervision          Type = "supervision"
	TenantAdministration Type = "tenant-administration"
	MarketIntegration    Type = "market-integration"
	WorkflowExecution    Type = "workflow-execution"
)

// ParseType validates a raw operation type string.
func ParseType(raw string) (Type, error) {
	switch t := Type(raw); t {
	case TaskAutomation, MentorshipGuidance, Supervision,
		TenantAdministration, MarketIntegration, WorkflowExecution:
		return t, nil
	}
	return "", fmt.Errorf("unknown operation type %q", raw)
}

// Class groups operations by expected backend latency. It selects the
// outbound request timeout.
type Class int

const (
	// ClassLookup covers short informational calls.
	ClassLookup Class = iota
	// ClassStandard covers single-step task execution.
	ClassStandard
	// ClassOrchestration covers multi-step agent coordination and
	// generation, which can run for minutes.
	ClassOrchestration
)

// Timeout returns the outbound request timeout for the class.
func (c Class) Timeout() time.Duration {
	switch c {
	case ClassLookup:
		return 30 * time.Second
	case ClassOrchestration:
		return 300 * time.Second
	default:
		return 60 * time.Second
	}
}

// Inputs is the raw field set of an inbound invocation, keyed by field name.
// JSON-typed fields carry their serialized form; the validator checks
// well-formedness before anything downstream parses them.
type Inputs map[string]string

// Well-known input field names shared across operation types.
const (
	FieldTenantID          = "tenant_id"
	FieldConfiguration     = "configuration"
	FieldInputData         = "input_data"
	FieldQuestion          = "question"
	FieldBusinessContext   = "business_context"
	FieldWorkflowConfig    = "workflow_config"
	FieldAgentCoordination = "agent_coordination"
	FieldWorkflowDef       = "workflow_definition"
	FieldIntegrationConfig = "integration_config"
	FieldTransactionData   = "transaction_data"
	FieldMarketConfig      = "market_config"
	FieldRegion            = "region"
	FieldExpertiseLevel    = "expertise_level"
	FieldCompliance        = "compliance_regulations"
	FieldAdminAction       = "admin_action"
	FieldAPIURL            = "api_url"
	FieldAPIKey            = "api_key"
)

// Field declares one input field of an operation.
type Field struct {
	Name     string
	JSON     bool // value must parse as JSON when present
	Optional bool
}

// Definition describes one operation type. Definitions are immutable after
// registry construction and safe for concurrent reads.
type Definition struct {
	Type  Type
	Path  string // backend POST path
	Class Class

	// TenantOptional marks operations that may run without a tenant.
	TenantOptional bool

	// Fields lists the declared input fields checked by the validator.
	Fields []Field

	// Defaults returns a fresh copy of the built-in configuration layer.
	Defaults func() map[string]any

	// NewConfig returns a zero typed configuration for the operation.
	// The validator decodes the caller's configuration field into it.
	NewConfig func() Config

	// Check applies operation-specific cross-field rules and returns
	// human-readable error strings.
	Check func(in Inputs) []string
}

// Timeout returns the outbound timeout for the operation.
func (d Definition) Timeout() time.Duration {
	return d.Class.Timeout()
}
