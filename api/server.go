// Package api exposes the HTTP surface. Handlers stay thin: decode, call
// into core, map errors to statuses. All authorization decisions live in
// core/rbac and the stores; middleware here only short-circuits early.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"safeflow/api/handlers"
	"safeflow/config"
	"safeflow/core/assist"
	"safeflow/core/audit"
	"safeflow/core/auth"
	"safeflow/core/rbac"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type Server struct {
	cfg      *config.AppConfig
	logger   *utils.Logger
	policy   *rbac.Policy
	sessions *auth.SessionManager

	auth      *handlers.AuthHandler
	incidents *handlers.IncidentsHandler
	actions   *handlers.ActionsHandler
	dashboard *handlers.DashboardHandler
	reports   *handlers.ReportsHandler
	audits    *handlers.AuditsHandler
	assist    *handlers.AssistHandler
	activity  *handlers.ActivityHandler
}

type Deps struct {
	Cfg       *config.AppConfig
	Logger    *utils.Logger
	Policy    *rbac.Policy
	Sessions  *auth.SessionManager
	Incidents *store.IncidentsStore
	Actions   *store.ActionsStore
	Audits    *store.AuditsStore
	Trail     *audit.Trail
	Assist    *assist.Client
}

func NewServer(d Deps) *Server {
	return &Server{
		cfg:       d.Cfg,
		logger:    d.Logger,
		policy:    d.Policy,
		sessions:  d.Sessions,
		auth:      handlers.NewAuthHandler(d.Sessions, d.Trail, d.Logger),
		incidents: handlers.NewIncidentsHandler(d.Incidents, d.Assist, d.Trail, d.Logger),
		actions:   handlers.NewActionsHandler(d.Actions, d.Trail, d.Logger),
		dashboard: handlers.NewDashboardHandler(d.Incidents, d.Actions, d.Logger),
		reports:   handlers.NewReportsHandler(d.Incidents, d.Actions, d.Policy, d.Assist, d.Trail, d.Logger),
		audits:    handlers.NewAuditsHandler(d.Audits, d.Trail, d.Logger),
		assist:    handlers.NewAssistHandler(d.Assist, d.Logger),
		activity:  handlers.NewActivityHandler(d.Trail, d.Policy, d.Logger),
	}
}

// Router assembles the middleware chain and the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware, s.jsonMiddleware, s.loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			r.Post("/auth/logout", s.auth.Logout)
			r.Get("/auth/me", s.auth.Me)
			r.Get("/notifications", s.requireCapability(rbac.CanAnalyzeIncident, s.auth.Notifications))
			r.Delete("/notifications", s.requireCapability(rbac.CanAnalyzeIncident, s.auth.ClearNotifications))

			r.Get("/incidents", s.incidents.List)
			r.Post("/incidents", s.requireCapability(rbac.CanReportIncident, s.incidents.Create))
			r.Patch("/incidents/{id}/status", s.requireCapability(rbac.CanAnalyzeIncident, s.incidents.UpdateStatus))
			r.Patch("/incidents/{id}/severity", s.requireCapability(rbac.CanAnalyzeIncident, s.incidents.UpdateSeverity))
			r.Post("/incidents/{id}/escalate", s.requireCapability(rbac.CanAnalyzeIncident, s.incidents.Escalate))
			r.Post("/incidents/{id}/analyze", s.requireCapability(rbac.CanAnalyzeIncident, s.incidents.Analyze))

			r.Get("/actions", s.actions.Board)
			r.Post("/actions", s.requireCapability(rbac.CanReassignAction, s.actions.Create))
			r.Patch("/actions/{id}/status", s.actions.UpdateStatus)

			r.Get("/dashboard", s.dashboard.Stats)

			r.Get("/reports/summary", s.reports.Summary)
			r.Get("/reports/export", s.reports.Export)
			r.Post("/reports/executive", s.requireCapability(rbac.CanViewComplianceRepts, s.reports.Executive))

			r.Get("/audits/templates", s.audits.Templates)
			r.Post("/audits/templates", s.requireCapability(rbac.CanManageAuditTemplate, s.audits.SaveTemplate))
			r.Get("/audits/inspections", s.audits.Inspections)
			r.Post("/audits/inspections", s.requireCapability(rbac.CanStartAudit, s.audits.StartInspection))

			r.Post("/assist/chat", s.assist.Chat)

			r.Get("/activity", s.requireCapability(rbac.CanViewComplianceRepts, s.activity.Recent))
		})
	})
	return r
}
