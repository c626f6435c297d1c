package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safeflow/core/assist"
	"safeflow/core/audit"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type IncidentsHandler struct {
	store  *store.IncidentsStore
	assist *assist.Client
	trail  *audit.Trail
	logger *utils.Logger
}

func NewIncidentsHandler(s *store.IncidentsStore, a *assist.Client, trail *audit.Trail, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{store: s, assist: a, trail: trail, logger: logger}
}

// List returns the incidents visible to the session role, newest first.
func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"incidents": h.store.Visible(sess.User.Actor())})
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var input store.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	inc, err := h.store.Create(input, sess.User.Actor())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionIncidentCreate, inc.ID, string(inc.Category))
	writeJSON(w, http.StatusCreated, inc)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *IncidentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	status, ok := store.ParseIncidentStatus(req.Status)
	if !ok {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	inc, err := h.store.UpdateStatus(id, status, sess.User.Actor())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionIncidentStatus, id, string(status))
	writeJSON(w, http.StatusOK, inc)
}

type severityRequest struct {
	Severity string `json:"severity"`
}

func (h *IncidentsHandler) UpdateSeverity(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req severityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	severity, ok := store.ParseSeverity(req.Severity)
	if !ok {
		http.Error(w, "unknown severity", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	inc, err := h.store.UpdateSeverity(id, severity, sess.User.Actor())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionIncidentSeverity, id, string(severity))
	writeJSON(w, http.StatusOK, inc)
}

func (h *IncidentsHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	inc, err := h.store.Escalate(id, sess.User.Actor())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionIncidentEscalate, id, "severity forced to Critical")
	writeJSON(w, http.StatusOK, inc)
}

// Analyze asks the assist service for corrective and preventive
// recommendations. The response is always a usable text.
func (h *IncidentsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	inc, err := h.store.Get(id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !store.VisibleTo(*inc, sess.User.Actor()) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	text := h.assist.SafetyRecommendations(r.Context(), *inc)
	writeJSON(w, http.StatusOK, map[string]string{"incident_id": inc.ID, "recommendations": text})
}
