package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"safeflow/core/rbac"
)

type IncidentCategory string

const (
	CategoryNearMiss           IncidentCategory = "Near Miss"
	CategoryInjury             IncidentCategory = "Injury"
	CategoryEquipmentFailure   IncidentCategory = "Equipment Failure"
	CategoryGasLeak            IncidentCategory = "Gas Leak"
	CategoryEnvironmentalSpill IncidentCategory = "Environmental Spill"
)

func AllCategories() []IncidentCategory {
	return []IncidentCategory{
		CategoryNearMiss, CategoryInjury, CategoryEquipmentFailure,
		CategoryGasLeak, CategoryEnvironmentalSpill,
	}
}

func ParseCategory(raw string) (IncidentCategory, bool) {
	for _, c := range AllCategories() {
		if strings.EqualFold(string(c), strings.TrimSpace(raw)) {
			return c, true
		}
	}
	return "", false
}

// Severity doubles as corrective-action priority; the two share one scale.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

func AllSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

func ParseSeverity(raw string) (Severity, bool) {
	for _, s := range AllSeverities() {
		if strings.EqualFold(string(s), strings.TrimSpace(raw)) {
			return s, true
		}
	}
	return "", false
}

type IncidentStatus string

const (
	IncidentReported           IncidentStatus = "Reported"
	IncidentUnderInvestigation IncidentStatus = "Under Investigation"
	IncidentResolved           IncidentStatus = "Resolved"
)

func ParseIncidentStatus(raw string) (IncidentStatus, bool) {
	for _, s := range []IncidentStatus{IncidentReported, IncidentUnderInvestigation, IncidentResolved} {
		if strings.EqualFold(string(s), strings.TrimSpace(raw)) {
			return s, true
		}
	}
	return "", false
}

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

type Incident struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Category     IncidentCategory `json:"category"`
	Severity     Severity         `json:"severity"`
	ReporterID   string           `json:"reporter_id"`
	ReporterName string           `json:"reporter_name"`
	Timestamp    time.Time        `json:"timestamp"`
	Location     Location         `json:"location"`
	EvidenceURLs []string         `json:"evidence_urls"`
	Status       IncidentStatus   `json:"status"`
}

// ReportInput is the incident submission form contract. Category and
// severity arrive as raw strings and are checked against the fixed enums.
type ReportInput struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	Severity     string   `json:"severity" validate:"required"`
	LocationName string   `json:"location_name" validate:"required"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	EvidenceURLs []string `json:"evidence_urls"`
}

// normalize trims the text fields before validation so whitespace-only
// values fail the required rule instead of slipping through as empty.
func (in *ReportInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Severity = strings.TrimSpace(in.Severity)
	in.LocationName = strings.TrimSpace(in.LocationName)
}

// IncidentsStore owns the authoritative incident list for one server
// session. Operations are serialized by a mutex so each either fully applies
// (mutation plus notification) or is rejected before any change.
type IncidentsStore struct {
	mu        sync.Mutex
	policy    *rbac.Policy
	feed      *Feed
	incidents []Incident
	byID      map[string]int
	validate  *validator.Validate
	now       func() time.Time
}

func NewIncidentsStore(policy *rbac.Policy, feed *Feed) *IncidentsStore {
	return &IncidentsStore{
		policy:   policy,
		feed:     feed,
		byID:     map[string]int{},
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the form, generates an id and prepends the new incident.
// A notification naming the reporter and location is always appended.
func (s *IncidentsStore) Create(input ReportInput, actor Actor) (*Incident, error) {
	if !s.policy.Allowed(actor.Role, rbac.CanReportIncident) {
		return nil, ErrUnauthorized
	}
	input.normalize()
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	category, ok := ParseCategory(input.Category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, input.Category)
	}
	severity, ok := ParseSeverity(input.Severity)
	if !ok {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, input.Severity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	inc := Incident{
		ID:           newRefID("INC", now, s.taken),
		Title:        input.Title,
		Description:  input.Description,
		Category:     category,
		Severity:     severity,
		ReporterID:   actor.ID,
		ReporterName: actor.Name,
		Timestamp:    now,
		Location:     Location{Lat: input.Lat, Lng: input.Lng, Address: input.LocationName},
		EvidenceURLs: append([]string(nil), input.EvidenceURLs...),
		Status:       IncidentReported,
	}
	s.prepend(inc)
	location := inc.Location.Address
	if location == "" {
		location = "Unspecified Location"
	}
	s.feed.Push(fmt.Sprintf("New Incident %s reported by %s at %s.", inc.ID, actor.Name, location))
	out := inc
	return &out, nil
}

// UpdateStatus replaces the status; transitions are unrestricted for roles
// holding the analyze capability.
func (s *IncidentsStore) UpdateStatus(id string, status IncidentStatus, actor Actor) (*Incident, error) {
	return s.update(id, actor, func(inc *Incident) {
		inc.Status = status
	})
}

func (s *IncidentsStore) UpdateSeverity(id string, severity Severity, actor Actor) (*Incident, error) {
	return s.update(id, actor, func(inc *Incident) {
		inc.Severity = severity
	})
}

// Escalate forces severity to Critical and notifies management. Repeated
// calls leave severity at Critical but still append one notification each.
// The mutation and the push happen under one lock, same as Create.
func (s *IncidentsStore) Escalate(id string, actor Actor) (*Incident, error) {
	if !s.policy.Allowed(actor.Role, rbac.CanAnalyzeIncident) {
		return nil, ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.incidents[idx].Severity = SeverityCritical
	s.feed.Push(fmt.Sprintf("URGENT: Incident %s has been escalated to Critical by %s.", id, actor.Name))
	out := s.incidents[idx]
	return &out, nil
}

func (s *IncidentsStore) update(id string, actor Actor, apply func(*Incident)) (*Incident, error) {
	if !s.policy.Allowed(actor.Role, rbac.CanAnalyzeIncident) {
		return nil, ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	apply(&s.incidents[idx])
	out := s.incidents[idx]
	return &out, nil
}

func (s *IncidentsStore) Get(id string) (*Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := s.incidents[idx]
	return &out, nil
}

func (s *IncidentsStore) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

// Visible applies the single shared visibility predicate: FieldWorker sees
// only their own reports, every other role sees the full set. All read
// surfaces (lists, dashboards, exports) go through here.
func (s *IncidentsStore) Visible(actor Actor) []Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		if VisibleTo(inc, actor) {
			out = append(out, inc)
		}
	}
	return out
}

// VisibleTo is the shared visibility predicate, exported so single-item
// read paths outside the store apply the same rule as Visible.
func VisibleTo(inc Incident, actor Actor) bool {
	if actor.Role == rbac.RoleFieldWorker {
		return inc.ReporterID == actor.ID
	}
	return true
}

// Seed loads pre-built incidents, newest first, bypassing policy checks.
// Used only by the demo fixture at boot.
func (s *IncidentsStore) Seed(incidents []Incident) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(incidents) - 1; i >= 0; i-- {
		s.prepend(incidents[i])
	}
}

func (s *IncidentsStore) prepend(inc Incident) {
	s.incidents = append([]Incident{inc}, s.incidents...)
	s.byID = make(map[string]int, len(s.incidents))
	for i, cur := range s.incidents {
		s.byID[cur.ID] = i
	}
}

func (s *IncidentsStore) taken(id string) bool {
	_, ok := s.byID[id]
	return ok
}
