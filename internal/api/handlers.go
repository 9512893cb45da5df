package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/breakoutai/automail/internal/tracking"
)

// transparent 1x1 GIF returned by the pixel endpoint
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80,
	0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01,
	0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// RecordsResponse is the response for GET /api/v1/records
type RecordsResponse struct {
	Records []*tracking.Record `json:"records"`
	Count   int                `json:"count"`
}

// EngagementRequest is the request body for POST /api/v1/engagement/{id}
type EngagementRequest struct {
	Opened  bool `json:"opened"`
	Clicked bool `json:"clicked"`
	Bounced bool `json:"bounced"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleRecords handles GET /api/v1/records
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list records", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list records")
		return
	}

	s.sendJSON(w, http.StatusOK, RecordsResponse{
		Records: records,
		Count:   len(records),
	})
}

// handleRecord handles GET /api/v1/records/{id}
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to get record", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get record")
		return
	}
	if rec == nil {
		s.sendError(w, http.StatusNotFound, "Record not found")
		return
	}

	s.sendJSON(w, http.StatusOK, rec)
}

// handleStats handles GET /api/v1/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}

	s.sendJSON(w, http.StatusOK, stats)
}

// handleEngagement handles POST /api/v1/engagement/{id}. Engagement
// flags only ever turn on; repeated webhook deliveries are harmless.
func (s *Server) handleEngagement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req EngagementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.store.SetEngagement(r.Context(), id, req.Opened, req.Clicked, req.Bounced); err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Record not found")
			return
		}
		s.logger.Error("failed to update engagement", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to update engagement")
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if err != nil || rec == nil {
		s.sendError(w, http.StatusInternalServerError, "Failed to get record")
		return
	}

	s.sendJSON(w, http.StatusOK, rec)
}

// handlePixel handles GET /pixel/{id}. The mail client fetching the
// image is the open signal. Unknown identifiers still get the pixel so
// the endpoint leaks nothing about the delivery log.
func (s *Server) handlePixel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.SetEngagement(r.Context(), id, true, false, false); err != nil {
		s.logger.Debug("pixel for unknown record", "id", id)
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(pixelGIF)
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}
