package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"safeflow/core/rbac"
)

type ActionStatus string

const (
	ActionOpen       ActionStatus = "Open"
	ActionInProgress ActionStatus = "In Progress"
	// ActionAwaitingVerification is where FieldWorker-initiated completions
	// land until a supervisor verifies the evidence.
	ActionAwaitingVerification ActionStatus = "Awaiting Verification"
	ActionCompleted            ActionStatus = "Completed"
)

// AllActionStatuses is also the stable board ordering.
func AllActionStatuses() []ActionStatus {
	return []ActionStatus{ActionOpen, ActionInProgress, ActionAwaitingVerification, ActionCompleted}
}

func ParseActionStatus(raw string) (ActionStatus, bool) {
	for _, s := range AllActionStatuses() {
		if strings.EqualFold(string(s), strings.TrimSpace(raw)) {
			return s, true
		}
	}
	return "", false
}

type CorrectiveAction struct {
	ID         string       `json:"id"`
	IncidentID string       `json:"incident_id"`
	Title      string       `json:"title"`
	AssignedTo string       `json:"assigned_to"`
	Deadline   string       `json:"deadline"`
	Priority   Severity     `json:"priority"`
	Status     ActionStatus `json:"status"`
}

type AssignInput struct {
	IncidentID string `json:"incident_id" validate:"required"`
	Title      string `json:"title" validate:"required"`
	AssignedTo string `json:"assigned_to" validate:"required"`
	Deadline   string `json:"deadline" validate:"required"`
	Priority   string `json:"priority" validate:"required"`
}

// normalize trims before validation, same contract as ReportInput.
func (in *AssignInput) normalize() {
	in.IncidentID = strings.TrimSpace(in.IncidentID)
	in.Title = strings.TrimSpace(in.Title)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	in.Deadline = strings.TrimSpace(in.Deadline)
	in.Priority = strings.TrimSpace(in.Priority)
}

// StatusGroup is one column of the board view.
type StatusGroup struct {
	Status  ActionStatus       `json:"status"`
	Actions []CorrectiveAction `json:"actions"`
}

// IncidentResolver answers whether an incident id exists; the actions store
// holds a weak relational link to incidents, not an ownership edge.
type IncidentResolver interface {
	Exists(id string) bool
}

type ActionsStore struct {
	mu        sync.Mutex
	policy    *rbac.Policy
	incidents IncidentResolver
	actions   []CorrectiveAction
	byID      map[string]int
	validate  *validator.Validate
	now       func() time.Time
}

func NewActionsStore(policy *rbac.Policy, incidents IncidentResolver) *ActionsStore {
	return &ActionsStore{
		policy:    policy,
		incidents: incidents,
		byID:      map[string]int{},
		validate:  validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns a corrective action against an existing incident. The
// incident reference is checked once, here; nothing re-validates it later.
func (s *ActionsStore) Create(input AssignInput, actor Actor) (*CorrectiveAction, error) {
	if !s.policy.Allowed(actor.Role, rbac.CanReassignAction) {
		return nil, ErrUnauthorized
	}
	input.normalize()
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	priority, ok := ParseSeverity(input.Priority)
	if !ok {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, input.Priority)
	}
	if s.incidents == nil || !s.incidents.Exists(input.IncidentID) {
		return nil, ErrInvalidReference
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	action := CorrectiveAction{
		ID:         newRefID("ACT", s.now(), s.taken),
		IncidentID: input.IncidentID,
		Title:      input.Title,
		AssignedTo: input.AssignedTo,
		Deadline:   input.Deadline,
		Priority:   priority,
		Status:     ActionOpen,
	}
	s.actions = append([]CorrectiveAction{action}, s.actions...)
	s.reindex()
	out := action
	return &out, nil
}

// UpdateStatus assigns the new status. A FieldWorker marking an action
// Completed is routed to Awaiting Verification instead, and a FieldWorker
// cannot touch an action that is already Completed.
func (s *ActionsStore) UpdateStatus(id string, status ActionStatus, actor Actor) (*CorrectiveAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if actor.Role == rbac.RoleFieldWorker {
		if s.actions[idx].Status == ActionCompleted {
			return nil, ErrUnauthorized
		}
		if status == ActionCompleted {
			status = ActionAwaitingVerification
		}
	}
	s.actions[idx].Status = status
	out := s.actions[idx]
	return &out, nil
}

func (s *ActionsStore) Get(id string) (*CorrectiveAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := s.actions[idx]
	return &out, nil
}

func (s *ActionsStore) All() []CorrectiveAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CorrectiveAction, len(s.actions))
	copy(out, s.actions)
	return out
}

// Grouped buckets actions by status for the board view, columns in the
// fixed order Open, In Progress, Awaiting Verification, Completed.
func (s *ActionsStore) Grouped() []StatusGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := make([]StatusGroup, 0, len(AllActionStatuses()))
	for _, status := range AllActionStatuses() {
		group := StatusGroup{Status: status, Actions: []CorrectiveAction{}}
		for _, a := range s.actions {
			if a.Status == status {
				group.Actions = append(group.Actions, a)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// Seed loads pre-built actions for the demo fixture.
func (s *ActionsStore) Seed(actions []CorrectiveAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(actions) - 1; i >= 0; i-- {
		s.actions = append([]CorrectiveAction{actions[i]}, s.actions...)
	}
	s.reindex()
}

func (s *ActionsStore) reindex() {
	s.byID = make(map[string]int, len(s.actions))
	for i, a := range s.actions {
		s.byID[a.ID] = i
	}
}

func (s *ActionsStore) taken(id string) bool {
	_, ok := s.byID[id]
	return ok
}
