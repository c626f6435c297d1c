package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"safeflow/core/store"
	"safeflow/core/utils"
)

// Event actions recorded on the trail.
const (
	ActionLogin            = "auth.login"
	ActionLogout           = "auth.logout"
	ActionIncidentCreate   = "incident.create"
	ActionIncidentStatus   = "incident.status"
	ActionIncidentSeverity = "incident.severity"
	ActionIncidentEscalate = "incident.escalate"
	ActionActionCreate     = "action.create"
	ActionActionStatus     = "action.status"
	ActionExport           = "report.export"
	ActionInspectionStart  = "audit.inspection_start"
)

type Event struct {
	ID        int64     `json:"id"`
	Occurred  time.Time `json:"occurred"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
}

// Trail appends events to the database. Recording is best effort: a write
// failure is logged and swallowed so store mutations never roll back over
// trail problems. A nil Trail is safe and records nothing.
type Trail struct {
	db     *sql.DB
	logger *utils.Logger
	now    func() time.Time
}

func NewTrail(db *sql.DB, logger *utils.Logger) *Trail {
	return &Trail{db: db, logger: logger, now: utils.NowUTC}
}

func (t *Trail) Record(ctx context.Context, actor store.Actor, action, subject, detail string) {
	if t == nil || t.db == nil {
		return
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO events (occurred, actor_id, actor_role, action, subject, detail) VALUES ($1, $2, $3, $4, $5, $6)`,
		t.now(), actor.ID, string(actor.Role), action, subject, detail)
	if err != nil {
		t.logger.Errorf("AUDIT record %s failed: %v", action, err)
	}
}

// Recent returns up to limit events, newest first.
func (t *Trail) Recent(ctx context.Context, limit int) ([]Event, error) {
	if t == nil || t.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, occurred, actor_id, actor_role, action, subject, detail FROM events ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Occurred, &e.ActorID, &e.ActorRole, &e.Action, &e.Subject, &e.Detail); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
