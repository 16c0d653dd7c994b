package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/engine"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/hub"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// MockSink records published opportunities
type MockSink struct {
	published []models.Opportunity
	err       error
}

func (m *MockSink) Publish(ctx context.Context, opps []models.Opportunity) error {
	m.published = append(m.published, opps...)
	return m.err
}

// MockAnalyzer fails every call
type MockAnalyzer struct {
	err error
}

func (m *MockAnalyzer) Analyze(ctx context.Context, req models.AnalyzeRequest) ([]models.Opportunity, error) {
	return nil, m.err
}

func (m *MockAnalyzer) Simulate(ctx context.Context, req models.SimulateRequest) (models.SimulationSummary, error) {
	return models.SimulationSummary{}, m.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupRouter(sink *MockSink) *chi.Mux {
	log := quietLogger()
	e := engine.New(engine.Config{Trials: 500, Workers: 2, Seed: 7, RiskFreeRate: 0.01}, log)

	var h *handlers.Handler
	if sink != nil {
		h = handlers.NewHandler(e, sink, log, 1000, 0)
	} else {
		h = handlers.NewHandler(e, nil, log, 1000, 0)
	}

	r := chi.NewRouter()
	handlers.Routes(r, h, nil)
	return r
}

const analyzeBody = `{
	"snapshotTime": "2025-03-01T18:00:00Z",
	"bankroll": 1000,
	"minimumEdge": 0.01,
	"markets": [
		{"eventId": "evt-1", "eventName": "A vs B", "marketName": "Match Winner", "sport": "soccer",
		 "runner": {"id": "a", "name": "A"}, "provider": {"id": "book1", "name": "Book 1"},
		 "oddsDecimal": 2.10, "impliedProbability": 0.5},
		{"eventId": "evt-1", "eventName": "A vs B", "marketName": "match winner", "sport": "soccer",
		 "runner": {"id": "b", "name": "B"}, "provider": {"id": "book2", "name": "Book 2"},
		 "oddsDecimal": 2.05, "impliedProbability": 0.5}
	]
}`

func TestHealthCheck(t *testing.T) {
	r := setupRouter(nil)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var response map[string]string
	json.NewDecoder(rr.Body).Decode(&response)

	if response["status"] != "healthy" || response["service"] != "arb-analytics" {
		t.Errorf("Unexpected health response %v", response)
	}
}

func TestAnalyze(t *testing.T) {
	sink := &MockSink{}
	r := setupRouter(sink)

	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(analyzeBody))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := rr.Body.String()
	var response models.AnalyzeResponse
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Opportunities) != 1 {
		t.Fatalf("Expected 1 opportunity, got %d", len(response.Opportunities))
	}
	opp := response.Opportunities[0]
	if opp.ID == "" {
		t.Error("Expected opportunity id")
	}
	if opp.Metrics == nil || opp.Simulation == nil || opp.Simulation.Trials != 500 {
		t.Errorf("Expected metrics and a 500 trial simulation, got %+v", opp)
	}
	if !strings.Contains(body, `"runner":"A"`) || !strings.Contains(body, `"pPositive"`) {
		t.Errorf("Expected camelCase wire names in %s", body)
	}
	if strings.Contains(body, "maxDrawdown") {
		t.Error("Expected maxDrawdown to be omitted")
	}

	if len(sink.published) != 1 || sink.published[0].ID != opp.ID {
		t.Errorf("Expected the opportunity to reach the sink, got %d", len(sink.published))
	}
}

func TestAnalyze_SinkFailureDoesNotFailRequest(t *testing.T) {
	r := setupRouter(&MockSink{err: errors.New("redis down")})

	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(analyzeBody))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 despite sink failure, got %d", rr.Code)
	}
}

func TestAnalyze_EmptyResultIsArray(t *testing.T) {
	r := setupRouter(nil)

	body := strings.Replace(analyzeBody, `"oddsDecimal": 2.10`, `"oddsDecimal": 1.50`, 1)
	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"opportunities":[]`) {
		t.Errorf("Expected empty array, got %s", rr.Body.String())
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	r := setupRouter(nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"markets": [`},
		{"empty markets", `{"snapshotTime": "2025-03-01T18:00:00Z", "markets": []}`},
		{"negative bankroll", strings.Replace(analyzeBody, `"bankroll": 1000`, `"bankroll": -5`, 1)},
		{"zero odds", strings.Replace(analyzeBody, `"oddsDecimal": 2.10`, `"oddsDecimal": 0`, 1)},
		{"odds of one", strings.Replace(analyzeBody, `"oddsDecimal": 2.10`, `"oddsDecimal": 1.0`, 1)},
		{"missing provider", strings.Replace(analyzeBody, `"id": "book1"`, `"id": ""`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}

			var response map[string]string
			json.NewDecoder(rr.Body).Decode(&response)
			if response["error"] == "" {
				t.Error("Expected error message")
			}
		})
	}
}

func TestAnalyze_ExplicitZeroEdgeOverridesDefault(t *testing.T) {
	log := quietLogger()
	e := engine.New(engine.Config{Trials: 100, Workers: 1, Seed: 7}, log)
	// Service default requires a 5% edge; the 2.10/2.05 market offers about 3.7%
	h := handlers.NewHandler(e, nil, log, 1000, 0.05)
	r := chi.NewRouter()
	handlers.Routes(r, h, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing edge uses default", strings.Replace(analyzeBody, `"minimumEdge": 0.01,`, ``, 1), 0},
		{"explicit zero edge", strings.Replace(analyzeBody, `"minimumEdge": 0.01`, `"minimumEdge": 0`, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest("POST", "/api/analyze", strings.NewReader(tt.body)))
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var response models.AnalyzeResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if len(response.Opportunities) != tt.want {
				t.Errorf("Expected %d opportunities, got %d", tt.want, len(response.Opportunities))
			}
		})
	}
}

func TestSimulate(t *testing.T) {
	r := setupRouter(nil)

	// Analyze first, then re-simulate the returned opportunity
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/api/analyze", strings.NewReader(analyzeBody)))

	var analyzed models.AnalyzeResponse
	if err := json.NewDecoder(rr.Body).Decode(&analyzed); err != nil || len(analyzed.Opportunities) != 1 {
		t.Fatalf("analysis failed: %v", err)
	}

	trials := 1
	payload, _ := json.Marshal(models.SimulateRequest{Opportunity: analyzed.Opportunities[0], Trials: &trials})

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/api/simulate", bytes.NewReader(payload)))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var summary models.SimulationSummary
	json.NewDecoder(rr.Body).Decode(&summary)
	if summary.Trials != 1 {
		t.Errorf("Expected 1 trial, got %d", summary.Trials)
	}
	if summary.ProbabilityPositive != 1 {
		t.Errorf("Expected pPositive 1 for an arbitrage, got %v", summary.ProbabilityPositive)
	}
}

func TestSimulate_BadRequest(t *testing.T) {
	r := setupRouter(nil)

	body := `{"opportunity": {"sumImpliedProbability": 0.96, "stakes": [{"runner": "A", "stakeFraction": 1, "payout": 1040}]}}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/api/simulate", strings.NewReader(body)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestAnalyze_InternalError(t *testing.T) {
	h := handlers.NewHandler(&MockAnalyzer{err: context.DeadlineExceeded}, nil, quietLogger(), 1000, 0)
	r := chi.NewRouter()
	handlers.Routes(r, h, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/api/analyze", strings.NewReader(analyzeBody)))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
}

func TestFeed_WebSocketReceivesOpportunities(t *testing.T) {
	log := quietLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.NewHub(log)
	go h.Run(ctx)

	e := engine.New(engine.Config{Trials: 100, Workers: 1, Seed: 3}, log)
	r := chi.NewRouter()
	handlers.Routes(r, handlers.NewHandler(e, h, log, 1000, 0), handlers.NewFeedHandler(ctx, h, log, nil))

	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/opportunities"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.GetClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.GetClientCount() != 1 {
		t.Fatalf("Expected 1 connected client, got %d", h.GetClientCount())
	}

	resp, err := http.Post(server.URL+"/api/analyze", "application/json", strings.NewReader(analyzeBody))
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    models.MessageType `json:"type"`
		Payload models.Opportunity `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read feed message: %v", err)
	}
	if msg.Type != models.MessageTypeOpportunity || msg.Payload.EventID != "evt-1" {
		t.Errorf("Unexpected feed message %+v", msg)
	}

	metrics := httptest.NewRecorder()
	r.ServeHTTP(metrics, httptest.NewRequest("GET", "/api/feed/metrics", nil))
	if metrics.Code != http.StatusOK {
		t.Errorf("Expected metrics status 200, got %d", metrics.Code)
	}
}
