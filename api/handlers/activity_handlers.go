package handlers

import (
	"net/http"
	"strconv"

	"safeflow/core/audit"
	"safeflow/core/rbac"
	"safeflow/core/utils"
)

// ActivityHandler serves the persisted trail to compliance readers.
type ActivityHandler struct {
	trail  *audit.Trail
	policy *rbac.Policy
	logger *utils.Logger
}

func NewActivityHandler(trail *audit.Trail, policy *rbac.Policy, logger *utils.Logger) *ActivityHandler {
	return &ActivityHandler{trail: trail, policy: policy, logger: logger}
}

func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.trail.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Errorf("activity query failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
