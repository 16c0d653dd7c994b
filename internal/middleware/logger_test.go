package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/middleware"
)

func TestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()

	handler := middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	req := httptest.NewRequest("POST", "/api/analyze", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if len(hook.Entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(hook.Entries))
	}

	entry := hook.LastEntry()
	if entry.Level != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %v", entry.Level)
	}
	if entry.Data["status"] != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %v", entry.Data["status"])
	}
	if entry.Data["path"] != "/api/analyze" {
		t.Errorf("Expected path /api/analyze, got %v", entry.Data["path"])
	}
}

func TestLogger_DefaultStatus(t *testing.T) {
	log, hook := test.NewNullLogger()

	handler := middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.InfoLevel {
		t.Fatalf("Expected info entry, got %+v", entry)
	}
	if entry.Data["status"] != http.StatusOK {
		t.Errorf("Expected status 200, got %v", entry.Data["status"])
	}
}
