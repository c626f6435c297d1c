package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safeflow/core/audit"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type ActionsHandler struct {
	store  *store.ActionsStore
	trail  *audit.Trail
	logger *utils.Logger
}

func NewActionsHandler(s *store.ActionsStore, trail *audit.Trail, logger *utils.Logger) *ActionsHandler {
	return &ActionsHandler{store: s, trail: trail, logger: logger}
}

// Board returns the status-grouped view, columns in fixed order.
func (h *ActionsHandler) Board(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": h.store.Grouped()})
}

func (h *ActionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var input store.AssignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	action, err := h.store.Create(input, sess.User.Actor())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionActionCreate, action.ID, "for "+action.IncidentID)
	writeJSON(w, http.StatusCreated, action)
}

// UpdateStatus is open to every authenticated role; the store applies the
// FieldWorker completion interception itself.
func (h *ActionsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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
	status, ok := store.ParseActionStatus(req.Status)
	if !ok {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	action, err := h.store.UpdateStatus(id, status, sess.User.Actor())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionActionStatus, id, string(action.Status))
	writeJSON(w, http.StatusOK, action)
}
