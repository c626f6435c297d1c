package handlers

import (
	"encoding/json"
	"net/http"

	"safeflow/core/audit"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type AuditsHandler struct {
	store  *store.AuditsStore
	trail  *audit.Trail
	logger *utils.Logger
}

func NewAuditsHandler(s *store.AuditsStore, trail *audit.Trail, logger *utils.Logger) *AuditsHandler {
	return &AuditsHandler{store: s, trail: trail, logger: logger}
}

func (h *AuditsHandler) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": h.store.Templates()})
}

func (h *AuditsHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var tpl store.AuditTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	saved, err := h.store.SaveTemplate(tpl, sess.User.Actor())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *AuditsHandler) Inspections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"inspections": h.store.Inspections()})
}

type startInspectionRequest struct {
	TemplateCode string `json:"template_code"`
}

func (h *AuditsHandler) StartInspection(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req startInspectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ins, err := h.store.StartInspection(req.TemplateCode, sess.User.Actor())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionInspectionStart, ins.ID, ins.TemplateCode)
	writeJSON(w, http.StatusCreated, ins)
}
