package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) CheckReadiness(ctx context.Context) error {
	return s.err
}

func doRequest(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := NewServer(":0", &stubChecker{}, slog.Default())
	rec, body := doRequest(t, s, "/healthz")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestReadyzOK(t *testing.T) {
	t.Parallel()

	s := NewServer(":0", &stubChecker{}, slog.Default())
	rec, body := doRequest(t, s, "/readyz")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "ready" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestReadyzNotReady(t *testing.T) {
	t.Parallel()

	s := NewServer(":0", &stubChecker{err: errors.New("index closed")}, slog.Default())
	rec, body := doRequest(t, s, "/readyz")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body["error"] != "index closed" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := NewServer(":0", &stubChecker{}, slog.Default())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected metrics output")
	}
}
