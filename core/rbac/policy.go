package rbac

import (
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Role labels are the wire values used by login and session records.
type Role string

const (
	RoleFieldWorker       Role = "Field Worker"
	RoleHSESupervisor     Role = "HSE Supervisor"
	RoleHSEManager        Role = "HSE Manager"
	RoleComplianceOfficer Role = "Compliance Officer"
)

func AllRoles() []Role {
	return []Role{RoleFieldWorker, RoleHSESupervisor, RoleHSEManager, RoleComplianceOfficer}
}

// ParseRole resolves a role label, case-insensitively. Unknown labels return
// false; callers must treat that as deny-everything.
func ParseRole(raw string) (Role, bool) {
	val := strings.TrimSpace(raw)
	for _, r := range AllRoles() {
		if strings.EqualFold(string(r), val) {
			return r, true
		}
	}
	return "", false
}

type Capability string

const (
	CanReportIncident      Capability = "incident.report"
	CanAnalyzeIncident     Capability = "incident.analyze"
	CanReassignAction      Capability = "action.reassign"
	CanStartAudit          Capability = "audit.start"
	CanManageAuditTemplate Capability = "audit.templates.manage"
	CanViewComplianceRepts Capability = "compliance.reports.view"
)

const modelText = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act
`

// grants is the exhaustive role/capability table. There is no wildcard and
// no default-allow; anything not listed here is denied.
var grants = [][2]string{
	{string(RoleFieldWorker), string(CanReportIncident)},

	{string(RoleHSESupervisor), string(CanReportIncident)},
	{string(RoleHSESupervisor), string(CanAnalyzeIncident)},
	{string(RoleHSESupervisor), string(CanReassignAction)},
	{string(RoleHSESupervisor), string(CanStartAudit)},

	{string(RoleHSEManager), string(CanAnalyzeIncident)},
	{string(RoleHSEManager), string(CanReassignAction)},
	{string(RoleHSEManager), string(CanStartAudit)},
	{string(RoleHSEManager), string(CanManageAuditTemplate)},

	{string(RoleComplianceOfficer), string(CanManageAuditTemplate)},
	{string(RoleComplianceOfficer), string(CanViewComplianceRepts)},
}

// Policy answers (role, capability) questions through a casbin enforcer
// compiled from the static grants table. It is stateless and safe for
// concurrent use.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for _, g := range grants {
		if _, err := e.AddPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}
	return &Policy{enforcer: e}, nil
}

// Allowed reports whether the role holds the capability. Errors from the
// enforcer and unknown roles both fail closed.
func (p *Policy) Allowed(role Role, cap Capability) bool {
	if p == nil || p.enforcer == nil {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), string(cap))
	if err != nil {
		return false
	}
	return ok
}
