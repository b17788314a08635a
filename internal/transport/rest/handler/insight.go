package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ptpal/internal/service"
	"ptpal/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// InsightHandler handles insight endpoints
type InsightHandler struct {
	insightSvc *service.InsightService
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(insightSvc *service.InsightService) *InsightHandler {
	return &InsightHandler{insightSvc: insightSvc}
}

// List handles GET /v1/insights
func (h *InsightHandler) List(w http.ResponseWriter, r *http.Request) {
	trainerID := middleware.GetTrainerID(r.Context())

	insights, err := h.insightSvc.ListForTrainer(r.Context(), trainerID, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load insights")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"insights": insights})
}

// Generate handles POST /v1/insights/generate
func (h *InsightHandler) Generate(w http.ResponseWriter, r *http.Request) {
	trainerID := middleware.GetTrainerID(r.Context())

	var req struct {
		Extended bool `json:"extended"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // Empty body means defaults
	}

	stats, err := h.insightSvc.GenerateForTrainer(r.Context(), trainerID, time.Now(), req.Extended)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "insight generation failed")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// MarkRead handles POST /v1/insights/{id}/read
func (h *InsightHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.insightSvc.MarkRead(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update insight")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// MarkAction handles POST /v1/insights/{id}/action
func (h *InsightHandler) MarkAction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.insightSvc.MarkActionTaken(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update insight")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Risk handles GET /v1/members/{id}/risk. It runs the churn engine without
// persisting anything, for the member detail screen.
func (h *InsightHandler) Risk(w http.ResponseWriter, r *http.Request) {
	memberID := mux.Vars(r)["id"]

	result, err := h.insightSvc.EvaluateMember(r.Context(), memberID, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"suppressed": true})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Evaluate handles POST /v1/members/{id}/evaluate
func (h *InsightHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	memberID := mux.Vars(r)["id"]
	trainerID := middleware.GetTrainerID(r.Context())

	result, err := h.insightSvc.EvaluateAndEmit(r.Context(), memberID, trainerID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMemberNotFound):
			writeError(w, http.StatusNotFound, "member not found")
		case errors.Is(err, service.ErrTrainerMismatch):
			writeError(w, http.StatusForbidden, "member belongs to another trainer")
		default:
			writeError(w, http.StatusInternalServerError, "evaluation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
