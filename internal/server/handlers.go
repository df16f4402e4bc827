package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dr-Olami/APAFlow/internal/envelope"
	"github.com/Dr-Olami/APAFlow/internal/gateway"
	"github.com/Dr-Olami/APAFlow/internal/operation"
	"github.com/Dr-Olami/APAFlow/internal/storage"
	"github.com/Dr-Olami/APAFlow/internal/tenant"
)

// Handler exposes the invocation pipeline over HTTP.
type Handler struct {
	gateway *gateway.Gateway
	audit   storage.AuditStore
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler set. audit may be nil.
func NewHandler(gw *gateway.Gateway, audit storage.AuditStore, logger *slog.Logger) *Handler {
	return &Handler{gateway: gw, audit: audit, logger: logger}
}

// Register mounts the handler routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/invoke/{operation}", h.HandleInvoke)
	r.Get("/v1/tenants/{tenantID}/invocations", h.HandleListInvocations)
	r.Get("/healthz", h.HandleHealth)
}

// HandleInvoke runs one node invocation. The response is always an envelope
// with HTTP 200; failures are reported through the envelope's success flag
// so workflow nodes never have to interpret transport-level status codes.
func (h *Handler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	opType := chi.URLParam(r, "operation")

	in, err := decodeInputs(r)
	if err != nil {
		AddError(r.Context(), err)
		writeEnvelope(w, h.logger, envelope.Failure("request body must be a JSON object: "+err.Error(), ""))
		return
	}

	AddLogField(r.Context(), "operation", opType)
	env := h.gateway.Invoke(r.Context(), opType, in)
	if env.TenantID != "" {
		AddLogField(r.Context(), "tenant_id", env.TenantID)
	}

	writeEnvelope(w, h.logger, env)
}

// HandleListInvocations returns the audit trail for one tenant.
func (h *Handler) HandleListInvocations(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Resolve(chi.URLParam(r, "tenantID"), true)
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, r, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if h.audit == nil {
		writeError(w, r, h.logger, http.StatusNotFound, "audit trail is not enabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	invocations, err := h.audit.ListInvocations(r.Context(), tc.ID, limit)
	if err != nil {
		h.logger.Error("failed to list invocations", slog.String("error", err.Error()))
		AddError(r.Context(), err)
		writeError(w, r, h.logger, http.StatusInternalServerError, "failed to list invocations")
		return
	}

	out := make([]map[string]any, 0, len(invocations))
	for _, inv := range invocations {
		out = append(out, map[string]any{
			"id":          inv.ID,
			"operation":   inv.Operation,
			"region":      inv.Region,
			"success":     inv.Success,
			"error_code":  inv.ErrorCode,
			"duration_ms": inv.DurationMs,
			"created_at":  inv.CreatedAt,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"tenant_id":   tc.ID,
		"invocations": out,
	})
}

// HandleHealth reports service identity and the registered surface.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	types := h.gateway.Registry().Types()
	ops := make([]string, len(types))
	for i, t := range types {
		ops[i] = string(t)
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"status":     "healthy",
		"service":    "apaflow-gateway",
		"operations": ops,
		"regions":    h.gateway.Catalog().Regions(),
	})
}

// decodeInputs flattens the request body into the raw input field set.
// JSON object and array values keep their serialized form so the validator
// can check well-formedness; scalars become their plain string value.
func decodeInputs(r *http.Request) (operation.Inputs, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}

	in := make(operation.Inputs, len(body))
	for k, raw := range body {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			in[k] = s
			continue
		}
		in[k] = strings.TrimSpace(string(raw))
	}
	return in, nil
}

func writeEnvelope(w http.ResponseWriter, logger *slog.Logger, env envelope.Envelope) {
	writeJSON(w, logger, http.StatusOK, env)
}

// writeError emits a non-envelope failure, carrying the request id so the
// caller can quote it when reporting the problem.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, map[string]any{
		"error":      message,
		"request_id": GetRequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
