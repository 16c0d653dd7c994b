package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/oddsmath"
)

const maxBodyBytes = 8 << 20

// Handler contains dependencies for the analytics endpoints
type Handler struct {
	analyzer        contracts.Analyzer
	sink            contracts.OpportunitySink
	log             logrus.FieldLogger
	defaultBankroll float64
	minEdge         float64
}

// NewHandler creates a new handler. sink may be nil.
func NewHandler(analyzer contracts.Analyzer, sink contracts.OpportunitySink, log logrus.FieldLogger, defaultBankroll, minEdge float64) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		analyzer:        analyzer,
		sink:            sink,
		log:             log.WithField("component", "handlers"),
		defaultBankroll: defaultBankroll,
		minEdge:         minEdge,
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "arb-analytics",
	})
}

// Analyze detects arbitrage opportunities in a snapshot of quotes
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	// Use defaults if not provided
	if req.Bankroll == 0 {
		req.Bankroll = h.defaultBankroll
	}
	if req.MinimumEdge == nil {
		minEdge := h.minEdge
		req.MinimumEdge = &minEdge
	}

	opportunities, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	if h.sink != nil && len(opportunities) > 0 {
		// Sink failures are logged by the sink and never fail the analysis
		if err := h.sink.Publish(r.Context(), opportunities); err != nil {
			h.log.WithError(err).Warn("opportunities not fully delivered")
		}
	}

	if opportunities == nil {
		opportunities = []models.Opportunity{}
	}
	respondJSON(w, http.StatusOK, models.AnalyzeResponse{Opportunities: opportunities})
}

// Simulate re-runs the Monte Carlo stage for a previously produced opportunity
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req models.SimulateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	summary, err := h.analyzer.Simulate(r.Context(), req)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) respondEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrInvalidRequest) || errors.Is(err, oddsmath.ErrInvalidOdds) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.WithError(err).Error("❌ analytics failed")
	respondError(w, http.StatusInternalServerError, "internal error")
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
