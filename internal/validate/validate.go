// Package validate applies per-operation structural and semantic validation
// to raw invocation inputs. All applicable errors are collected before
// returning; the dispatcher is only reachable when validation passed.
package validate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Dr-Olami/APAFlow/internal/market"
	"github.com/Dr-Olami/APAFlow/internal/operation"
	"github.com/Dr-Olami/APAFlow/internal/tenant"
)

// MinCredentialLength is a heuristic quality gate for credential fields,
// not a security guarantee.
const MinCredentialLength = 16

// ExpertiseLevels is the closed set of mentorship expertise levels.
var ExpertiseLevels = []string{"beginner", "intermediate", "advanced", "expert"}

// ComplianceRegulations is the closed set of supported regulation codes.
var ComplianceRegulations = []string{"gdpr", "popia", "cbn", "ndpr"}

// Result is the outcome of validating one invocation.
type Result struct {
	Valid  bool
	Errors []string

	// Sanitized holds cleaned values to use downstream instead of the raw
	// inputs. The tenant id is present whenever resolution succeeded, even
	// if other fields failed.
	Sanitized map[string]string

	// Tenant is the resolved tenant context, zero when resolution failed.
	Tenant tenant.Context

	// Config is the typed operation configuration, nil unless the
	// configuration field was present and decoded cleanly.
	Config operation.Config
}

// Validator checks invocation inputs against operation definitions.
// It is stateless apart from the injected region catalog.
type Validator struct {
	catalog *market.Catalog
}

// New creates a validator backed by the given region catalog.
func New(catalog *market.Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// Validate applies the rule set for the operation to the raw inputs.
// Rules do not short-circuit: every applicable error is gathered.
func (v *Validator) Validate(def operation.Definition, in operation.Inputs) Result {
	res := Result{Sanitized: make(map[string]string)}

	v.checkTenant(def, in, &res)
	v.checkFields(def, in, &res)
	v.checkEndpoint(in, &res)
	v.checkCredential(in, &res)

	if def.Check != nil {
		res.Errors = append(res.Errors, def.Check(in)...)
	}

	v.checkEnums(def, in, &res)
	v.decodeConfig(def, in, &res)

	res.Valid = len(res.Errors) == 0
	return res
}

func (v *Validator) checkTenant(def operation.Definition, in operation.Inputs, res *Result) {
	ctx, err := tenant.Resolve(in[operation.FieldTenantID], !def.TenantOptional)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return
	}
	res.Tenant = ctx
	if ctx.Isolated {
		res.Sanitized[operation.FieldTenantID] = ctx.ID
	}
}

func (v *Validator) checkFields(def operation.Definition, in operation.Inputs, res *Result) {
	for _, f := range def.Fields {
		if !f.JSON {
			continue
		}
		raw := strings.TrimSpace(in[f.Name])
		if raw == "" {
			if !f.Optional {
				res.Errors = append(res.Errors,
					fmt.Sprintf("%s is required for %s operations", f.Name, def.Type))
			}
			continue
		}
		if !json.Valid([]byte(raw)) {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s must be valid JSON", f.Name))
		}
	}
}

func (v *Validator) checkEndpoint(in operation.Inputs, res *Result) {
	raw := strings.TrimSpace(in[operation.FieldAPIURL])
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		res.Errors = append(res.Errors,
			fmt.Sprintf("api_url %q is not a well-formed absolute URL", raw))
		return
	}
	res.Sanitized[operation.FieldAPIURL] = u.String()
}

func (v *Validator) checkCredential(in operation.Inputs, res *Result) {
	raw := strings.TrimSpace(in[operation.FieldAPIKey])
	if raw == "" {
		return
	}
	if len(raw) < MinCredentialLength {
		res.Errors = append(res.Errors,
			fmt.Sprintf("api_key must be at least %d characters", MinCredentialLength))
	}
}

func (v *Validator) checkEnums(def operation.Definition, in operation.Inputs, res *Result) {
	if region := strings.ToLower(strings.TrimSpace(in[operation.FieldRegion])); region != "" {
		if !v.catalog.Supported(region) {
			res.Errors = append(res.Errors,
				fmt.Sprintf("region %q is not supported (expected one of: %s)",
					region, strings.Join(v.catalog.Regions(), ", ")))
		} else {
			res.Sanitized[operation.FieldRegion] = region
		}
	}

	if def.Type == operation.MentorshipGuidance {
		if level := strings.ToLower(strings.TrimSpace(in[operation.FieldExpertiseLevel])); level != "" {
			if !member(level, ExpertiseLevels) {
				res.Errors = append(res.Errors,
					fmt.Sprintf("expertise_level %q is not supported (expected one of: %s)",
						level, strings.Join(ExpertiseLevels, ", ")))
			} else {
				res.Sanitized[operation.FieldExpertiseLevel] = level
			}
		}
	}

	if raw := strings.TrimSpace(in[operation.FieldCompliance]); raw != "" {
		var clean []string
		for _, code := range strings.Split(raw, ",") {
			code = strings.ToLower(strings.TrimSpace(code))
			if code == "" {
				continue
			}
			if !member(code, ComplianceRegulations) {
				res.Errors = append(res.Errors,
					fmt.Sprintf("compliance regulation %q is not supported (expected one of: %s)",
						code, strings.Join(ComplianceRegulations, ", ")))
				continue
			}
			clean = append(clean, code)
		}
		if len(clean) > 0 {
			res.Sanitized[operation.FieldCompliance] = strings.Join(clean, ",")
		}
	}
}

func (v *Validator) decodeConfig(def operation.Definition, in operation.Inputs, res *Result) {
	if def.NewConfig == nil {
		return
	}
	raw := strings.TrimSpace(in[operation.FieldConfiguration])
	if raw == "" || !json.Valid([]byte(raw)) {
		// Absence is handled by field rules; invalid JSON already reported.
		return
	}
	cfg := def.NewConfig()
	if err := json.Unmarshal([]byte(raw), cfg); err != nil {
		res.Errors = append(res.Errors,
			fmt.Sprintf("configuration does not match the %s schema: %v", def.Type, err))
		return
	}
	res.Config = cfg
}

func member(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
