// Package envelope normalizes every invocation outcome into the single
// response shape consumed by all node types. Every code path, including
// validation and transport failures, produces an envelope; callers never
// see a raw error.
package envelope

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/Dr-Olami/APAFlow/internal/dispatch"
)

// CodeUnknown is the error code for failures with no downstream status:
// transport errors and local validation failures.
const CodeUnknown = "UNKNOWN"

// Envelope is the uniform outward-facing response contract.
type Envelope struct {
	Success bool `json:"success"`

	Result json.RawMessage `json:"result,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`

	TenantID  string    `json:"tenant_id"`
	Timestamp time.Time `json:"timestamp"`

	MarketConfig    map[string]any `json:"market_config,omitempty"`
	ExecutionTimeMs int64          `json:"execution_time_ms,omitempty"`
}

// FromOutcome converts a dispatch outcome into an envelope. tenantID is
// best-effort: pass the sanitized id even when resolution partially failed
// so failure envelopes still report the tenant.
func FromOutcome(out dispatch.Outcome, tenantID string, effective map[string]any) Envelope {
	env := Envelope{
		TenantID:        tenantID,
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMs: out.ExecutionTime.Milliseconds(),
	}

	switch out.Kind {
	case dispatch.KindSuccess:
		env.Success = true
		env.Result = out.Body
		env.MarketConfig = effective
	case dispatch.KindDownstreamError:
		env.Error = out.Message
		env.ErrorCode = strconv.Itoa(out.Status)
	default:
		env.Error = out.Message
		env.ErrorCode = CodeUnknown
	}

	return env
}

// ValidationFailure builds the envelope for locally rejected invocations.
// The dispatcher is never involved on this path.
func ValidationFailure(errs []string, tenantID string) Envelope {
	return Envelope{
		Error:     "validation failed: " + strings.Join(errs, "; "),
		ErrorCode: CodeUnknown,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
	}
}

// Failure builds a generic failure envelope for internal errors that occur
// outside validation and dispatch. It is the last line of defense.
func Failure(message, tenantID string) Envelope {
	return Envelope{
		Error:     message,
		ErrorCode: CodeUnknown,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
	}
}
