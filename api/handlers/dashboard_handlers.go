package handlers

import (
	"net/http"

	"safeflow/core/stats"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type DashboardHandler struct {
	incidents *store.IncidentsStore
	actions   *store.ActionsStore
	logger    *utils.Logger
}

func NewDashboardHandler(incidents *store.IncidentsStore, actions *store.ActionsStore, logger *utils.Logger) *DashboardHandler {
	return &DashboardHandler{incidents: incidents, actions: actions, logger: logger}
}

type dashboardResponse struct {
	OpenIncidents  int                            `json:"open_incidents"`
	PendingActions int                            `json:"pending_actions"`
	CriticalCount  int                            `json:"critical_count"`
	ComplianceRate int                            `json:"compliance_rate"`
	Categories     map[store.IncidentCategory]int `json:"categories"`
	Severities     map[store.Severity]int         `json:"severities"`
	Recent         []store.Incident               `json:"recent"`
}

// Stats computes the role-scoped dashboard over the visible snapshot.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	actor := sess.User.Actor()
	visible := h.incidents.Visible(actor)
	writeJSON(w, http.StatusOK, dashboardResponse{
		OpenIncidents:  stats.OpenIncidentCount(visible),
		PendingActions: stats.PendingActionCount(h.actions.All(), actor),
		CriticalCount:  stats.CriticalCount(visible),
		ComplianceRate: stats.ComplianceRate(visible),
		Categories:     stats.CategoryDistribution(visible),
		Severities:     stats.SeverityDistribution(visible),
		Recent:         stats.RecentReports(visible, 5),
	})
}
