package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ptpal/internal/model"
	"ptpal/internal/service"
)

// EventHandler handles member event ingestion
type EventHandler struct {
	insightSvc *service.InsightService
}

// NewEventHandler creates a new event handler
func NewEventHandler(insightSvc *service.InsightService) *EventHandler {
	return &EventHandler{insightSvc: insightSvc}
}

type bodyRecordRequest struct {
	MemberID   string     `json:"memberId"`
	Weight     float64    `json:"weight"`
	BodyFat    float64    `json:"bodyFat,omitempty"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

// CreateBodyRecord handles POST /v1/events/body-records. Saving the record
// also triggers a reactive churn re-evaluation for the member, subject to
// the trainer's cooldown.
func (h *EventHandler) CreateBodyRecord(w http.ResponseWriter, r *http.Request) {
	var req bodyRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MemberID == "" || req.Weight <= 0 {
		writeError(w, http.StatusBadRequest, "memberId and a positive weight are required")
		return
	}

	now := time.Now()
	recordedAt := now
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	record := &model.BodyRecord{
		MemberID:   req.MemberID,
		RecordedAt: recordedAt,
		Weight:     req.Weight,
		BodyFat:    req.BodyFat,
	}

	if err := h.insightSvc.OnBodyRecordCreated(r.Context(), record, now); err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save body record")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}
