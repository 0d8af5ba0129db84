package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fieldgate/fieldgate/internal/domain/validation"
	"github.com/fieldgate/fieldgate/internal/service"
)

// ValidateRequest is the body of POST /v1/validate.
type ValidateRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Field string `json:"field,omitempty"`
}

// RejectionBody is the JSON rendering of a rejection.
type RejectionBody struct {
	Field          string   `json:"field"`
	Signal         string   `json:"signal"`
	Reason         string   `json:"reason"`
	AllowedClasses []string `json:"allowed_classes,omitempty"`
	Findings       []string `json:"findings,omitempty"`
}

// ValidateResponse is the body returned for a single validation.
type ValidateResponse struct {
	Accepted  bool           `json:"accepted"`
	Value     string         `json:"value,omitempty"`
	Rejection *RejectionBody `json:"rejection,omitempty"`
}

// BatchRequest is the body of POST /v1/validate/batch.
type BatchRequest struct {
	Fields []ValidateRequest `json:"fields"`
}

// BatchResponse reports per-field outcomes plus an overall verdict.
type BatchResponse struct {
	Accepted bool                        `json:"accepted"`
	Fields   map[string]ValidateResponse `json:"fields"`
}

// maxRequestBody caps request bodies. Validated values are capped far
// lower by the length rules, so anything near this limit is abuse.
const maxRequestBody = 1 << 20

func outcomeBody(outcome validation.Outcome) ValidateResponse {
	resp := ValidateResponse{Accepted: outcome.Accepted, Value: outcome.Value}
	if outcome.Rejection != nil {
		r := outcome.Rejection
		body := &RejectionBody{
			Field:          r.Field,
			Signal:         string(r.Signal),
			Reason:         r.Reason,
			AllowedClasses: r.AllowedClasses,
		}
		for _, f := range r.Findings {
			body.Findings = append(body.Findings, string(f.Kind))
		}
		resp.Rejection = body
	}
	return resp
}

func findingKinds(outcome validation.Outcome) []string {
	if outcome.Rejection == nil {
		return nil
	}
	kinds := make([]string, 0, len(outcome.Rejection.Findings))
	for _, f := range outcome.Rejection.Findings {
		kinds = append(kinds, string(f.Kind))
	}
	return kinds
}

func rejectionSignal(outcome validation.Outcome) string {
	if outcome.Rejection == nil {
		return ""
	}
	return string(outcome.Rejection.Signal)
}

// validateHandler handles POST /v1/validate.
func validateHandler(svc *service.ValidationService, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req ValidateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		kind, err := validation.ParseFieldKind(req.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		label := req.Field
		if label == "" {
			label = "Value"
		}

		outcome, err := svc.Validate(r.Context(), kind, req.Value, label)
		if err != nil {
			LoggerFromContext(r.Context()).Error("validation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		metrics.observeOutcome(kind.String(), outcome.Accepted, rejectionSignal(outcome), findingKinds(outcome))

		status := http.StatusOK
		if !outcome.Accepted {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, outcomeBody(outcome))
	})
}

// batchHandler handles POST /v1/validate/batch.
func batchHandler(svc *service.ValidationService, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req BatchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.Fields) == 0 {
			writeError(w, http.StatusBadRequest, "fields must not be empty")
			return
		}

		fields := make(map[string]validation.FieldValue, len(req.Fields))
		for i, f := range req.Fields {
			kind, err := validation.ParseFieldKind(f.Kind)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			label := f.Field
			if label == "" {
				label = "Field " + strconv.Itoa(i+1)
			}
			if _, dup := fields[label]; dup {
				writeError(w, http.StatusBadRequest, "duplicate field label: "+label)
				return
			}
			fields[label] = validation.FieldValue{Kind: kind, Value: f.Value}
		}

		outcomes, err := svc.ValidateFields(r.Context(), fields)
		if err != nil {
			LoggerFromContext(r.Context()).Error("batch validation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := BatchResponse{Accepted: true, Fields: make(map[string]ValidateResponse, len(outcomes))}
		for label, outcome := range outcomes {
			metrics.observeOutcome(fields[label].Kind.String(), outcome.Accepted, rejectionSignal(outcome), findingKinds(outcome))
			resp.Fields[label] = outcomeBody(outcome)
			if !outcome.Accepted {
				resp.Accepted = false
			}
		}

		status := http.StatusOK
		if !resp.Accepted {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, resp)
	})
}

// rejectionsHandler handles GET /v1/rejections. It returns recent audit
// events, newest first. The limit query parameter defaults to 50.
func rejectionsHandler(svc *service.ValidationService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 1000 {
				writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
				return
			}
			limit = n
		}

		events, err := svc.RecentRejections(r.Context(), limit)
		if err != nil {
			LoggerFromContext(r.Context()).Error("failed to load rejections", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rejections": events})
	})
}

// healthHandler handles GET /healthz.
func healthHandler(version string, registry *validation.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if err := registry.SelfTest(); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status":  status,
			"version": version,
			"kinds":   len(registry.Rules()),
		})
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
