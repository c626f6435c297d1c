package store

import (
	"errors"
	"regexp"
	"testing"
)

func newTestStores(t *testing.T) (*IncidentsStore, *ActionsStore) {
	t.Helper()
	policy := newTestPolicy(t)
	incidents := NewIncidentsStore(policy, NewFeed())
	actions := NewActionsStore(policy, incidents)
	return incidents, actions
}

func validAssignment(incidentID string) AssignInput {
	return AssignInput{
		IncidentID: incidentID,
		Title:      "Replace worn valve seal",
		AssignedTo: "Maintenance Team B",
		Deadline:   "2026-09-15",
		Priority:   "High",
	}
}

func TestCreateAction(t *testing.T) {
	incidents, actions := newTestStores(t)
	inc, err := incidents.Create(validReport(), fieldWorker)
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	action, err := actions.Create(validAssignment(inc.ID), supervisor)
	if err != nil {
		t.Fatalf("create action: %v", err)
	}
	if !regexp.MustCompile(`^ACT-\d{6}-\d{4}$`).MatchString(action.ID) {
		t.Fatalf("id %q does not match ACT-YYMMDD-NNNN", action.ID)
	}
	if action.Status != ActionOpen {
		t.Fatalf("status = %q, want Open", action.Status)
	}
	if action.IncidentID != inc.ID {
		t.Fatalf("incident link = %q, want %q", action.IncidentID, inc.ID)
	}
}

func TestCreateActionValidation(t *testing.T) {
	incidents, actions := newTestStores(t)
	inc, err := incidents.Create(validReport(), fieldWorker)
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	cases := []func(*AssignInput){
		func(a *AssignInput) { a.Title = "" },
		func(a *AssignInput) { a.Title = "   " },
		func(a *AssignInput) { a.AssignedTo = " \t" },
		func(a *AssignInput) { a.Deadline = "  " },
		func(a *AssignInput) { a.Priority = "Urgent-ish" },
	}
	for i, mutate := range cases {
		input := validAssignment(inc.ID)
		mutate(&input)
		if _, err := actions.Create(input, supervisor); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
	if len(actions.All()) != 0 {
		t.Fatal("rejected assignments must not mutate the store")
	}
}

func TestCreateActionInvalidReference(t *testing.T) {
	_, actions := newTestStores(t)
	if _, err := actions.Create(validAssignment("INC-000000-0000"), supervisor); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("err = %v, want ErrInvalidReference", err)
	}
	if len(actions.All()) != 0 {
		t.Fatal("no action may be added on invalid reference")
	}
}

func TestCreateActionAuthorization(t *testing.T) {
	incidents, actions := newTestStores(t)
	inc, err := incidents.Create(validReport(), fieldWorker)
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	for _, actor := range []Actor{fieldWorker, compliance} {
		if _, err := actions.Create(validAssignment(inc.ID), actor); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: err = %v, want ErrUnauthorized", actor.Role, err)
		}
	}
	if _, err := actions.Create(validAssignment(inc.ID), manager); err != nil {
		t.Fatalf("manager assignment: %v", err)
	}
}

func TestFieldWorkerCompletionIntercepted(t *testing.T) {
	incidents, actions := newTestStores(t)
	inc, _ := incidents.Create(validReport(), fieldWorker)
	action, err := actions.Create(validAssignment(inc.ID), supervisor)
	if err != nil {
		t.Fatalf("create action: %v", err)
	}
	got, err := actions.UpdateStatus(action.ID, ActionCompleted, fieldWorker)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if got.Status != ActionAwaitingVerification {
		t.Fatalf("status = %q, want Awaiting Verification", got.Status)
	}
	// Supervisors complete directly, including verification sign-off.
	got, err = actions.UpdateStatus(action.ID, ActionCompleted, supervisor)
	if err != nil {
		t.Fatalf("supervisor completion: %v", err)
	}
	if got.Status != ActionCompleted {
		t.Fatalf("status = %q, want Completed", got.Status)
	}
	// Completed actions are frozen for the field worker.
	if _, err := actions.UpdateStatus(action.ID, ActionInProgress, fieldWorker); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestGroupedBoardOrder(t *testing.T) {
	incidents, actions := newTestStores(t)
	inc, _ := incidents.Create(validReport(), fieldWorker)
	a1, _ := actions.Create(validAssignment(inc.ID), supervisor)
	a2, _ := actions.Create(validAssignment(inc.ID), supervisor)
	if _, err := actions.UpdateStatus(a2.ID, ActionInProgress, supervisor); err != nil {
		t.Fatalf("move to in progress: %v", err)
	}
	groups := actions.Grouped()
	wantOrder := []ActionStatus{ActionOpen, ActionInProgress, ActionAwaitingVerification, ActionCompleted}
	if len(groups) != len(wantOrder) {
		t.Fatalf("got %d groups, want %d", len(groups), len(wantOrder))
	}
	for i, status := range wantOrder {
		if groups[i].Status != status {
			t.Fatalf("group %d = %q, want %q", i, groups[i].Status, status)
		}
	}
	if len(groups[0].Actions) != 1 || groups[0].Actions[0].ID != a1.ID {
		t.Fatalf("open bucket wrong: %+v", groups[0].Actions)
	}
	if len(groups[1].Actions) != 1 || groups[1].Actions[0].ID != a2.ID {
		t.Fatalf("in-progress bucket wrong: %+v", groups[1].Actions)
	}
}

func TestActionStatusNotFound(t *testing.T) {
	_, actions := newTestStores(t)
	if _, err := actions.UpdateStatus("ACT-000000-0000", ActionOpen, supervisor); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
