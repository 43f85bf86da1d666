package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/logging"
	"github.com/documind-ai/documind-go/internal/retrieval"
)

// handleQuery handles POST /api/query. It runs the full retrieve and
// synthesize pipeline and returns the answer with its citation list.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}
	if req.TopK < 0 || (req.MinScore != nil && *req.MinScore < 0) {
		http.Error(w, "top_k and min_score must not be negative", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result, err := s.engine.Answer(r.Context(), req.Question, retrieval.Params{
		TopK:     req.TopK,
		MinScore: req.MinScore,
	})
	if err != nil {
		outcome := "error"
		status := http.StatusInternalServerError
		msg := "failed to answer question"
		if errors.Is(err, core.ErrEmbedding) || errors.Is(err, core.ErrIndex) {
			// Upstream dependency failure, not a bug in the engine.
			status = http.StatusBadGateway
			msg = "retrieval backend unavailable"
		}
		s.metrics.queryRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.queryDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		log.Error("query failed", slog.Any("error", err))
		http.Error(w, msg, status)
		return
	}

	s.metrics.queryRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.queryDurationSeconds.WithLabelValues("ok").Observe(result.Elapsed.Seconds())
	log.Info("query answered",
		slog.Int("citations", len(result.Passages)),
		slog.Duration("elapsed", result.Elapsed),
	)

	resp := queryResponse{
		Question:         result.Question,
		Answer:           result.Answer,
		Citations:        make([]citation, 0, len(result.Passages)),
		ProcessingTimeMs: result.Elapsed.Milliseconds(),
	}
	for _, p := range result.Passages {
		resp.Citations = append(resp.Citations, citation{
			ChunkID:    p.ChunkID,
			DocumentID: p.DocumentID,
			SourceName: p.SourceName,
			Text:       p.Text,
			Score:      p.Score,
			Rank:       p.Rank,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
