package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Dr-Olami/APAFlow/internal/dispatch"
)

const tid = "550e8400-e29b-41d4-a716-446655440000"

func TestFromOutcome_Success(t *testing.T) {
	effective := map[string]any{"region": "nigeria", "currency": "NGN"}
	out := dispatch.Outcome{
		Kind:          dispatch.KindSuccess,
		Body:          json.RawMessage(`{"answer":"42","usage":{"tokens":7}}`),
		ExecutionTime: 1500 * time.Millisecond,
	}

	env := FromOutcome(out, tid, effective)

	if !env.Success {
		t.Fatal("expected success envelope")
	}
	if string(env.Result) != `{"answer":"42","usage":{"tokens":7}}` {
		t.Errorf("result must pass through unchanged, got %s", env.Result)
	}
	if env.TenantID != tid {
		t.Errorf("tenant_id = %q", env.TenantID)
	}
	if env.MarketConfig["currency"] != "NGN" {
		t.Errorf("market config not echoed: %v", env.MarketConfig)
	}
	if env.ExecutionTimeMs != 1500 {
		t.Errorf("execution_time_ms = %d, want 1500", env.ExecutionTimeMs)
	}
	if env.Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}
}

func TestFromOutcome_DownstreamError(t *testing.T) {
	out := dispatch.Outcome{
		Kind:    dispatch.KindDownstreamError,
		Status:  503,
		Message: "backend unavailable",
	}

	env := FromOutcome(out, tid, nil)

	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.ErrorCode != "503" {
		t.Errorf("error_code = %q, want 503", env.ErrorCode)
	}
	if env.Error != "backend unavailable" {
		t.Errorf("error = %q", env.Error)
	}
}

func TestFromOutcome_TransportError(t *testing.T) {
	out := dispatch.Outcome{
		Kind:    dispatch.KindTransportError,
		Message: "dial tcp: connection refused",
	}

	env := FromOutcome(out, tid, nil)

	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.ErrorCode != CodeUnknown {
		t.Errorf("error_code = %q, want %q", env.ErrorCode, CodeUnknown)
	}
	if env.Error == "" {
		t.Error("error message must be populated")
	}
}

func TestValidationFailure(t *testing.T) {
	env := ValidationFailure([]string{"question is required", "api_key too short"}, tid)

	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.ErrorCode != CodeUnknown {
		t.Errorf("error_code = %q", env.ErrorCode)
	}
	if env.TenantID != tid {
		t.Errorf("tenant_id = %q", env.TenantID)
	}
	want := "validation failed: question is required; api_key too short"
	if env.Error != want {
		t.Errorf("error = %q, want %q", env.Error, want)
	}
}

// Every outcome shape must serialize to the same envelope contract.
func TestEnvelope_TotalShape(t *testing.T) {
	cases := []struct {
		name string
		env  Envelope
	}{
		{"validation failure", ValidationFailure([]string{"x"}, "")},
		{"transport failure", FromOutcome(dispatch.Outcome{Kind: dispatch.KindTransportError, Message: "down"}, tid, nil)},
		{"downstream 500", FromOutcome(dispatch.Outcome{Kind: dispatch.KindDownstreamError, Status: 500, Message: "boom"}, tid, nil)},
		{"downstream 400", FromOutcome(dispatch.Outcome{Kind: dispatch.KindDownstreamError, Status: 400, Message: "bad"}, tid, nil)},
		{"success", FromOutcome(dispatch.Outcome{Kind: dispatch.KindSuccess, Body: json.RawMessage(`{}`)}, tid, nil)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.env)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(raw, &decoded); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, ok := decoded["success"]; !ok {
				t.Error("success field missing")
			}
			if _, ok := decoded["timestamp"]; !ok {
				t.Error("timestamp field missing")
			}
			if _, ok := decoded["tenant_id"]; !ok {
				t.Error("tenant_id field missing")
			}
			if !tc.env.Success {
				if tc.env.Error == "" || tc.env.ErrorCode == "" {
					t.Error("failure envelopes must populate error and error_code")
				}
			}
		})
	}
}
