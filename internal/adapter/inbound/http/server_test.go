package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fieldgate/fieldgate/internal/adapter/outbound/audit"
	"github.com/fieldgate/fieldgate/internal/domain/auth"
	"github.com/fieldgate/fieldgate/internal/domain/validation"
	"github.com/fieldgate/fieldgate/internal/service"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	registry, err := validation.NewRegistry(validation.DefaultRegistryConfig())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewValidationService(validation.NewValidator(registry), nil, audit.NopStore{}, logger)
	opts = append([]Option{WithLogger(logger)}, opts...)
	return NewServer(svc, registry, opts...)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestValidateEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	tests := []struct {
		name       string
		req        ValidateRequest
		wantStatus int
		wantOK     bool
		wantSignal string
	}{
		{"accepted name", ValidateRequest{Kind: "name", Value: "my.test.name", Field: "Name"}, http.StatusOK, true, ""},
		{"name with spaces accepted", ValidateRequest{Kind: "name", Value: "my test name", Field: "Name"}, http.StatusOK, true, ""},
		{"identifier with spaces rejected", ValidateRequest{Kind: "identifier", Value: "my test id", Field: "ID"}, http.StatusUnprocessableEntity, false, "pattern_violation"},
		{"tool name leading digit", ValidateRequest{Kind: "tool_name", Value: "1tool", Field: "Tool name"}, http.StatusUnprocessableEntity, false, "structural_violation"},
		{"script injection outside charset", ValidateRequest{Kind: "name", Value: "<script>alert(1)</script>", Field: "Name"}, http.StatusUnprocessableEntity, false, "pattern_violation"},
		{"valid uri", ValidateRequest{Kind: "uri", Value: "https://example.com/a", Field: "URL"}, http.StatusOK, true, ""},
		{"uri with traversal", ValidateRequest{Kind: "uri", Value: "https://example.com/../etc/passwd", Field: "URL"}, http.StatusUnprocessableEntity, false, "unsafe_content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler, "/v1/validate", tt.req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp ValidateResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Accepted != tt.wantOK {
				t.Fatalf("accepted = %v, want %v", resp.Accepted, tt.wantOK)
			}
			if tt.wantSignal != "" && resp.Rejection.Signal != tt.wantSignal {
				t.Fatalf("signal = %s, want %s", resp.Rejection.Signal, tt.wantSignal)
			}
		})
	}
}

func TestValidateEndpoint_BadRequests(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := postJSON(t, handler, "/v1/validate", ValidateRequest{Kind: "bogus", Value: "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader(`{"kind":"name","unknown":1}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/validate", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d, want 405", rec.Code)
	}
}

func TestBatchEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := postJSON(t, handler, "/v1/validate/batch", BatchRequest{Fields: []ValidateRequest{
		{Kind: "name", Value: "good name", Field: "Name"},
		{Kind: "identifier", Value: "bad id here", Field: "ID"},
	}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp BatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Accepted {
		t.Fatal("expected overall rejection")
	}
	if !resp.Fields["Name"].Accepted || resp.Fields["ID"].Accepted {
		t.Fatalf("unexpected per-field outcomes: %+v", resp.Fields)
	}

	rec = postJSON(t, handler, "/v1/validate/batch", BatchRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty batch status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, handler, "/v1/validate/batch", BatchRequest{Fields: []ValidateRequest{
		{Kind: "name", Value: "a", Field: "Name"},
		{Kind: "name", Value: "b", Field: "Name"},
	}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate label status = %d, want 400", rec.Code)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestServer(t, WithVersion("1.2.3")).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "healthy" || body["version"] != "1.2.3" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	postJSON(t, handler, "/v1/validate", ValidateRequest{Kind: "name", Value: "ok name"})
	postJSON(t, handler, "/v1/validate", ValidateRequest{Kind: "name", Value: "<b>bold</b>"})
	postJSON(t, handler, "/v1/validate", ValidateRequest{Kind: "uri", Value: "https://example.com/../etc/passwd"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`fieldgate_validations_total{kind="name",outcome="accepted"} 1`,
		`fieldgate_validations_total{kind="name",outcome="rejected"} 1`,
		`fieldgate_rejections_total{kind="name",signal="pattern_violation"} 1`,
		`fieldgate_rejections_total{kind="uri",signal="unsafe_content"} 1`,
		`fieldgate_unsafe_content_total{finding="path_traversal"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	keyring := auth.NewKeyring([]string{auth.HashKey("secret-key")})
	handler := newTestServer(t, WithKeyring(keyring)).Handler()

	rec := postJSON(t, handler, "/v1/validate", ValidateRequest{Kind: "name", Value: "ok"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader(`{"kind":"name","value":"ok"}`))
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader(`{"kind":"name","value":"ok"}`))
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid key status = %d, want 200", rec.Code)
	}
}

func TestOriginAllowlist(t *testing.T) {
	handler := newTestServer(t, WithAllowedOrigins([]string{"https://app.example.com"})).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader(`{"kind":"name","value":"ok"}`))
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader(`{"kind":"name","value":"ok"}`))
	req.Header.Set("Origin", "https://app.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("allowed origin status = %d, want 200", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated X-Request-ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestRejectionsEndpoint_LimitValidation(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/rejections?limit=0", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=0 status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/rejections?limit=10", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
