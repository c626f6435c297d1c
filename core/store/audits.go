package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"safeflow/core/rbac"
)

// AuditTemplate is a digital inspection checklist definition.
type AuditTemplate struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Frequency string `json:"frequency"`
}

type Inspection struct {
	ID           string    `json:"id"`
	TemplateCode string    `json:"template_code"`
	StartedBy    string    `json:"started_by"`
	StartedAt    time.Time `json:"started_at"`
	Status       string    `json:"status"`
}

func DefaultAuditTemplates() []AuditTemplate {
	return []AuditTemplate{
		{Code: "SF-INS-001", Title: "Weekly Facility Safety Walk", Frequency: "Weekly"},
		{Code: "SF-INS-002", Title: "Rig Operation Compliance", Frequency: "Bi-Weekly"},
		{Code: "SF-INS-003", Title: "Environment Impact Assessment", Frequency: "Monthly"},
	}
}

type AuditsStore struct {
	mu          sync.Mutex
	policy      *rbac.Policy
	templates   []AuditTemplate
	inspections []Inspection
	now         func() time.Time
}

func NewAuditsStore(policy *rbac.Policy) *AuditsStore {
	return &AuditsStore{
		policy:    policy,
		templates: DefaultAuditTemplates(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuditsStore) Templates() []AuditTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditTemplate, len(s.templates))
	copy(out, s.templates)
	return out
}

// SaveTemplate inserts or replaces a template by code.
func (s *AuditsStore) SaveTemplate(tpl AuditTemplate, actor Actor) (*AuditTemplate, error) {
	if !s.policy.Allowed(actor.Role, rbac.CanManageAuditTemplate) {
		return nil, ErrUnauthorized
	}
	tpl.Code = strings.TrimSpace(tpl.Code)
	tpl.Title = strings.TrimSpace(tpl.Title)
	if tpl.Code == "" || tpl.Title == "" {
		return nil, fmt.Errorf("%w: template code and title are required", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.templates {
		if strings.EqualFold(cur.Code, tpl.Code) {
			s.templates[i] = tpl
			out := tpl
			return &out, nil
		}
	}
	s.templates = append(s.templates, tpl)
	out := tpl
	return &out, nil
}

// StartInspection opens an inspection run from a template.
func (s *AuditsStore) StartInspection(templateCode string, actor Actor) (*Inspection, error) {
	if !s.policy.Allowed(actor.Role, rbac.CanStartAudit) {
		return nil, ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, tpl := range s.templates {
		if strings.EqualFold(tpl.Code, strings.TrimSpace(templateCode)) {
			templateCode = tpl.Code
			found = true
			break
		}
	}
	if !found {
		return nil, ErrInvalidReference
	}
	ins := Inspection{
		ID:           newRefID("AUD", s.now(), s.inspectionTaken),
		TemplateCode: templateCode,
		StartedBy:    actor.Name,
		StartedAt:    s.now(),
		Status:       "In Progress",
	}
	s.inspections = append([]Inspection{ins}, s.inspections...)
	out := ins
	return &out, nil
}

func (s *AuditsStore) Inspections() []Inspection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Inspection, len(s.inspections))
	copy(out, s.inspections)
	return out
}

func (s *AuditsStore) inspectionTaken(id string) bool {
	for _, ins := range s.inspections {
		if ins.ID == id {
			return true
		}
	}
	return false
}
