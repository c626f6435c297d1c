package handlers

import (
	"fmt"
	"net/http"

	"safeflow/core/assist"
	"safeflow/core/audit"
	"safeflow/core/export"
	"safeflow/core/rbac"
	"safeflow/core/stats"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type ReportsHandler struct {
	incidents *store.IncidentsStore
	actions   *store.ActionsStore
	policy    *rbac.Policy
	assist    *assist.Client
	trail     *audit.Trail
	logger    *utils.Logger
}

func NewReportsHandler(incidents *store.IncidentsStore, actions *store.ActionsStore, policy *rbac.Policy, a *assist.Client, trail *audit.Trail, logger *utils.Logger) *ReportsHandler {
	return &ReportsHandler{incidents: incidents, actions: actions, policy: policy, assist: a, trail: trail, logger: logger}
}

type reportSummary struct {
	TotalIncidents int                            `json:"total_incidents"`
	ComplianceRate int                            `json:"compliance_rate"`
	EvidenceRate   int                            `json:"evidence_rate"`
	CriticalCount  int                            `json:"critical_count"`
	Categories     map[store.IncidentCategory]int `json:"categories"`
	Severities     map[store.Severity]int         `json:"severities"`
	Regulations    []string                       `json:"regulations,omitempty"`
}

// Summary serves the reports page KPIs over the visible snapshot. The
// regulation list is only attached for roles with the compliance view.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	visible := h.incidents.Visible(sess.User.Actor())
	out := reportSummary{
		TotalIncidents: len(visible),
		ComplianceRate: stats.ComplianceRate(visible),
		EvidenceRate:   stats.EvidenceRate(visible),
		CriticalCount:  stats.CriticalCount(visible),
		Categories:     stats.CategoryDistribution(visible),
		Severities:     stats.SeverityDistribution(visible),
	}
	if h.policy.Allowed(sess.User.Role, rbac.CanViewComplianceRepts) {
		out.Regulations = export.Regulations
	}
	writeJSON(w, http.StatusOK, out)
}

// Export streams the role-shaped CSV. The regulation query parameter only
// affects the statutory projection; unknown values fall back to the default.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	actor := sess.User.Actor()
	doc, err := export.Render(h.incidents.Visible(actor), actor, r.URL.Query().Get("regulation"), utils.NowUTC())
	if err != nil {
		h.logger.Errorf("export render failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.trail.Record(r.Context(), actor, audit.ActionExport, doc.Filename, "")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}

// Executive compiles the board-level narrative through the assist service.
func (h *ReportsHandler) Executive(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	text := h.assist.ExecutiveSummary(r.Context(), h.incidents.Visible(sess.User.Actor()))
	writeJSON(w, http.StatusOK, map[string]string{"report": text})
}
