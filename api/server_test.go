package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"safeflow/api/handlers"
	"safeflow/config"
	"safeflow/core/assist"
	"safeflow/core/auth"
	"safeflow/core/rbac"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type testEnv struct {
	srv       *httptest.Server
	sessions  *auth.SessionManager
	incidents *store.IncidentsStore
	actions   *store.ActionsStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	policy, err := rbac.NewPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	cfg := &config.AppConfig{ListenAddr: "127.0.0.1:0"}
	logger := utils.NewLogger()
	feed := store.NewFeed()
	sessions := auth.NewSessionManager(cfg, feed, logger)
	incidents := store.NewIncidentsStore(policy, feed)
	actions := store.NewActionsStore(policy, incidents)
	audits := store.NewAuditsStore(policy)

	server := NewServer(Deps{
		Cfg:       cfg,
		Logger:    logger,
		Policy:    policy,
		Sessions:  sessions,
		Incidents: incidents,
		Actions:   actions,
		Audits:    audits,
		Trail:     nil, // trail writes are optional and nil-safe
		Assist:    assist.NewClient(&config.AssistConfig{}, logger),
	})
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, sessions: sessions, incidents: incidents, actions: actions}
}

func (e *testEnv) login(t *testing.T, role rbac.Role) *http.Cookie {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", fmt.Sprintf(`{"role":%q}`, role), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", role, resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == handlers.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

const reportBody = `{"title":"Gas smell at manifold","description":"Strong smell near valve 3","category":"Gas Leak","severity":"High","location_name":"Bonny Terminal"}`

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/incidents", "/api/dashboard", "/api/notifications", "/api/auth/me"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestLoginRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/auth/login", `{"role":"Administrator"}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMeReturnsDemoUser(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, rbac.RoleFieldWorker)
	resp := env.do(t, http.MethodGet, "/api/auth/me", "", cookie)
	var out struct {
		User auth.User `json:"user"`
	}
	decodeBody(t, resp, &out)
	if out.User.Name != "Efe Okoro" || out.User.ID != "USR-999" {
		t.Fatalf("user = %+v, want field worker persona", out.User)
	}
}

func TestFieldWorkerCannotAssignActions(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, rbac.RoleFieldWorker)
	resp := env.do(t, http.MethodPost, "/api/actions", `{"incident_id":"INC-000000-0000"}`, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestManagerCannotReportIncident(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, rbac.RoleHSEManager)
	resp := env.do(t, http.MethodPost, "/api/incidents", reportBody, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestReportAndListRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, rbac.RoleFieldWorker)

	resp := env.do(t, http.MethodPost, "/api/incidents", reportBody, cookie)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created store.Incident
	decodeBody(t, resp, &created)
	if !strings.HasPrefix(created.ID, "INC-") {
		t.Fatalf("id = %q", created.ID)
	}

	resp = env.do(t, http.MethodGet, "/api/incidents", "", cookie)
	var list struct {
		Incidents []store.Incident `json:"incidents"`
	}
	decodeBody(t, resp, &list)
	if len(list.Incidents) != 1 || list.Incidents[0].ID != created.ID {
		t.Fatalf("list = %+v", list.Incidents)
	}
}

func TestFieldWorkerSeesOnlyOwnReports(t *testing.T) {
	env := newTestEnv(t)
	env.incidents.Seed([]store.Incident{{
		ID: "INC-240101-1000", Title: "Other report", ReporterID: "USR-001",
		Category: store.CategoryNearMiss, Severity: store.SeverityLow, Status: store.IncidentReported,
	}})
	cookie := env.login(t, rbac.RoleFieldWorker)
	resp := env.do(t, http.MethodGet, "/api/incidents", "", cookie)
	var list struct {
		Incidents []store.Incident `json:"incidents"`
	}
	decodeBody(t, resp, &list)
	if len(list.Incidents) != 0 {
		t.Fatalf("field worker sees %d foreign incidents", len(list.Incidents))
	}
}

func TestEscalatePushesNotification(t *testing.T) {
	env := newTestEnv(t)
	env.incidents.Seed([]store.Incident{{
		ID: "INC-240101-1000", Title: "Spill", ReporterID: "USR-001",
		Category: store.CategoryEnvironmentalSpill, Severity: store.SeverityMedium, Status: store.IncidentReported,
	}})
	cookie := env.login(t, rbac.RoleHSEManager)
	resp := env.do(t, http.MethodPost, "/api/incidents/INC-240101-1000/escalate", "", cookie)
	var inc store.Incident
	decodeBody(t, resp, &inc)
	if inc.Severity != store.SeverityCritical {
		t.Fatalf("severity = %q", inc.Severity)
	}

	resp = env.do(t, http.MethodGet, "/api/notifications", "", cookie)
	var out struct {
		Notifications []string `json:"notifications"`
	}
	decodeBody(t, resp, &out)
	if len(out.Notifications) == 0 || !strings.HasPrefix(out.Notifications[0], "URGENT:") {
		t.Fatalf("notifications = %v", out.Notifications)
	}
}

func TestNotificationFeedIsManagementOnly(t *testing.T) {
	env := newTestEnv(t)
	env.incidents.Seed([]store.Incident{{
		ID: "INC-240101-1000", Title: "Spill", ReporterID: "USR-001",
		Category: store.CategoryEnvironmentalSpill, Severity: store.SeverityMedium, Status: store.IncidentReported,
	}})
	manager := env.login(t, rbac.RoleHSEManager)
	resp := env.do(t, http.MethodPost, "/api/incidents/INC-240101-1000/escalate", "", manager)
	resp.Body.Close()

	for _, role := range []rbac.Role{rbac.RoleFieldWorker, rbac.RoleComplianceOfficer} {
		cookie := env.login(t, role)
		resp = env.do(t, http.MethodGet, "/api/notifications", "", cookie)
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s GET notifications = %d, want 403", role, resp.StatusCode)
		}
		resp = env.do(t, http.MethodDelete, "/api/notifications", "", cookie)
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s DELETE notifications = %d, want 403", role, resp.StatusCode)
		}
	}

	// The escalation alert must survive the denied delete attempts.
	resp = env.do(t, http.MethodGet, "/api/notifications", "", manager)
	var out struct {
		Notifications []string `json:"notifications"`
	}
	decodeBody(t, resp, &out)
	if len(out.Notifications) == 0 || !strings.HasPrefix(out.Notifications[0], "URGENT:") {
		t.Fatalf("notifications after denied clears = %v", out.Notifications)
	}
}

func TestActionCompletionInterceptedForFieldWorker(t *testing.T) {
	env := newTestEnv(t)
	env.incidents.Seed([]store.Incident{{ID: "INC-240101-1000", ReporterID: "USR-999", Status: store.IncidentReported}})
	env.actions.Seed([]store.CorrectiveAction{{
		ID: "ACT-240101-1000", IncidentID: "INC-240101-1000", Title: "Replace seal",
		AssignedTo: "Efe Okoro", Priority: store.SeverityHigh, Status: store.ActionInProgress,
	}})
	cookie := env.login(t, rbac.RoleFieldWorker)
	resp := env.do(t, http.MethodPatch, "/api/actions/ACT-240101-1000/status", `{"status":"Completed"}`, cookie)
	var action store.CorrectiveAction
	decodeBody(t, resp, &action)
	if action.Status != store.ActionAwaitingVerification {
		t.Fatalf("status = %q, want Awaiting Verification", action.Status)
	}
}

func TestExportShapesByRole(t *testing.T) {
	env := newTestEnv(t)
	env.incidents.Seed([]store.Incident{{
		ID: "INC-240101-1000", Title: "Spill", ReporterID: "USR-001",
		Category: store.CategoryEnvironmentalSpill, Severity: store.SeverityHigh, Status: store.IncidentResolved,
	}})

	cookie := env.login(t, rbac.RoleComplianceOfficer)
	resp := env.do(t, http.MethodGet, "/api/reports/export", "", cookie)
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "SafeFlow_Statutory_Log_") {
		t.Errorf("content disposition = %q", cd)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Reg_ID,Regulatory_Ref,") {
		t.Fatalf("statutory header missing: %q", buf.String())
	}

	cookie = env.login(t, rbac.RoleHSEManager)
	resp = env.do(t, http.MethodGet, "/api/reports/export", "", cookie)
	defer resp.Body.Close()
	buf.Reset()
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "ID,Title,") {
		t.Fatalf("operational header missing: %q", buf.String())
	}
}

func TestExecutiveReportGated(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, rbac.RoleHSESupervisor)
	resp := env.do(t, http.MethodPost, "/api/reports/executive", "", cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestChatOfflineReply(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, rbac.RoleFieldWorker)
	resp := env.do(t, http.MethodPost, "/api/assist/chat", `{"message":"How do I report a hazard?"}`, cookie)
	var out struct {
		Reply string `json:"reply"`
	}
	decodeBody(t, resp, &out)
	if !strings.Contains(out.Reply, "offline") {
		t.Fatalf("reply = %q", out.Reply)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, rbac.RoleHSEManager)
	resp := env.do(t, http.MethodPost, "/api/auth/logout", "", cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/api/auth/me", "", cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d, want 401", resp.StatusCode)
	}
}

func TestInspectionStartGatedAndCreated(t *testing.T) {
	env := newTestEnv(t)

	cookie := env.login(t, rbac.RoleFieldWorker)
	resp := env.do(t, http.MethodPost, "/api/audits/inspections", `{"template_code":"SF-INS-001"}`, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("field worker start = %d, want 403", resp.StatusCode)
	}

	cookie = env.login(t, rbac.RoleHSESupervisor)
	resp = env.do(t, http.MethodPost, "/api/audits/inspections", `{"template_code":"SF-INS-001"}`, cookie)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("supervisor start = %d, want 201", resp.StatusCode)
	}
	var ins store.Inspection
	decodeBody(t, resp, &ins)
	if !strings.HasPrefix(ins.ID, "AUD-") || ins.TemplateCode != "SF-INS-001" {
		t.Fatalf("inspection = %+v", ins)
	}
}
