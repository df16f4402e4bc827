package validate

import (
	"strings"
	"testing"

	"github.com/Dr-Olami/APAFlow/internal/market"
	"github.com/Dr-Olami/APAFlow/internal/operation"
)

const validTenant = "550e8400-e29b-41d4-a716-446655440000"

func newValidator(t *testing.T) (*Validator, *operation.Registry) {
	t.Helper()
	catalog, err := market.NewCatalog("")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return New(catalog), operation.NewRegistry()
}

func def(t *testing.T, reg *operation.Registry, typ operation.Type) operation.Definition {
	t.Helper()
	d, ok := reg.Lookup(typ)
	if !ok {
		t.Fatalf("no definition for %s", typ)
	}
	return d
}

func hasError(res Result, substr string) bool {
	for _, e := range res.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidate_MentorshipMissingQuestion(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.MentorshipGuidance), operation.Inputs{
		operation.FieldTenantID: validTenant,
		operation.FieldQuestion: "",
		operation.FieldRegion:   "nigeria",
	})

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !hasError(res, "question") {
		t.Errorf("expected an error naming the missing question, got %v", res.Errors)
	}
	if res.Sanitized[operation.FieldTenantID] != validTenant {
		t.Error("sanitized tenant id should survive other field failures")
	}
}

func TestValidate_SupervisionRequiresCoordinationOrWorkflow(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.Supervision), operation.Inputs{
		operation.FieldTenantID: validTenant,
	})

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !hasError(res, "at least one of workflow_config or agent_coordination") {
		t.Errorf("expected at-least-one error, got %v", res.Errors)
	}
}

func TestValidate_AutomationMalformedConfigurationJSON(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.TaskAutomation), operation.Inputs{
		operation.FieldTenantID:      validTenant,
		operation.FieldConfiguration: "{not json",
		operation.FieldInputData:     "{}",
	})

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !hasError(res, "configuration must be valid JSON") {
		t.Errorf("expected JSON parse error naming configuration, got %v", res.Errors)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.TaskAutomation), operation.Inputs{
		operation.FieldTenantID:      "nope",
		operation.FieldConfiguration: "{bad",
		operation.FieldAPIURL:        "not a url",
		operation.FieldAPIKey:        "short",
	})

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	// Tenant, configuration JSON, missing input_data, URL, and credential
	// errors must all be present; validation does not short-circuit.
	if len(res.Errors) < 5 {
		t.Errorf("expected at least 5 errors, got %d: %v", len(res.Errors), res.Errors)
	}
	if !hasError(res, "not a valid UUID") {
		t.Errorf("missing tenant error: %v", res.Errors)
	}
	if !hasError(res, "input_data is required") {
		t.Errorf("missing input_data requirement: %v", res.Errors)
	}
	if !hasError(res, "absolute URL") {
		t.Errorf("missing URL error: %v", res.Errors)
	}
	if !hasError(res, "api_key must be at least") {
		t.Errorf("missing credential error: %v", res.Errors)
	}
}

func TestValidate_UnknownRegionReportedByName(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.MentorshipGuidance), operation.Inputs{
		operation.FieldTenantID: validTenant,
		operation.FieldQuestion: "How do I price my produce?",
		operation.FieldRegion:   "wakanda",
	})

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !hasError(res, `region "wakanda"`) {
		t.Errorf("expected offending region named, got %v", res.Errors)
	}
}

func TestValidate_UnknownExpertiseLevel(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.MentorshipGuidance), operation.Inputs{
		operation.FieldTenantID:       validTenant,
		operation.FieldQuestion:       "How do I register for VAT?",
		operation.FieldExpertiseLevel: "grandmaster",
	})

	if !hasError(res, `expertise_level "grandmaster"`) {
		t.Errorf("expected offending level named, got %v", res.Errors)
	}
}

func TestValidate_ComplianceRegulations(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.MarketIntegration), operation.Inputs{
		operation.FieldTenantID:         validTenant,
		operation.FieldIntegrationConfig: `{"provider":"mpesa"}`,
		operation.FieldTransactionData:   `{"amount":100}`,
		operation.FieldCompliance:        "gdpr, hipaa",
	})

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !hasError(res, `compliance regulation "hipaa"`) {
		t.Errorf("expected offending regulation named, got %v", res.Errors)
	}
}

func TestValidate_TypedConfigDecoded(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.TaskAutomation), operation.Inputs{
		operation.FieldTenantID:      validTenant,
		operation.FieldConfiguration: `{"task_type":"invoice_chase","max_retries":5,"tools":["http_request"]}`,
		operation.FieldInputData:     `{"customer":"acme"}`,
	})

	if !res.Valid {
		t.Fatalf("expected valid result, got %v", res.Errors)
	}
	cfg, ok := res.Config.(*operation.AutomationConfig)
	if !ok {
		t.Fatalf("expected *AutomationConfig, got %T", res.Config)
	}
	if cfg.TaskType != "invoice_chase" || cfg.MaxRetries != 5 {
		t.Errorf("unexpected decoded config: %+v", cfg)
	}
}

func TestValidate_ConfigSchemaMismatch(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.TaskAutomation), operation.Inputs{
		operation.FieldTenantID:      validTenant,
		operation.FieldConfiguration: `{"max_retries":"lots"}`,
		operation.FieldInputData:     `{}`,
	})

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !hasError(res, "does not match the task-automation schema") {
		t.Errorf("expected schema mismatch error, got %v", res.Errors)
	}
}

func TestValidate_AdminActionClosedSet(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.TenantAdministration), operation.Inputs{
		operation.FieldTenantID:    validTenant,
		operation.FieldAdminAction: "obliterate",
	})

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !hasError(res, `admin_action "obliterate"`) {
		t.Errorf("expected offending action named, got %v", res.Errors)
	}
}

func TestValidate_EndpointSanitized(t *testing.T) {
	v, reg := newValidator(t)

	res := v.Validate(def(t, reg, operation.TenantAdministration), operation.Inputs{
		operation.FieldTenantID:    validTenant,
		operation.FieldAdminAction: "provision",
		operation.FieldAPIURL:      "https://backend.internal:8000/api",
	})

	if !res.Valid {
		t.Fatalf("expected valid result, got %v", res.Errors)
	}
	if res.Sanitized[operation.FieldAPIURL] != "https://backend.internal:8000/api" {
		t.Errorf("expected sanitized api_url, got %q", res.Sanitized[operation.FieldAPIURL])
	}
}
