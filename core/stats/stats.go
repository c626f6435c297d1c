// Package stats computes the derived dashboard and compliance figures. All
// functions are pure over store snapshots and recomputed on every read; the
// data volumes never justify incremental counters.
package stats

import (
	"math"
	"strings"

	"safeflow/core/rbac"
	"safeflow/core/store"
)

// OpenIncidentCount counts role-visible incidents that are not Resolved.
// Callers pass the already-filtered visible snapshot so the visibility
// predicate lives in exactly one place.
func OpenIncidentCount(visible []store.Incident) int {
	n := 0
	for _, inc := range visible {
		if inc.Status != store.IncidentResolved {
			n++
		}
	}
	return n
}

// PendingActionCount counts actions that are not Completed. A FieldWorker
// only counts actions assigned to them by name or to the shared "Field
// Team"; the management roles count everything.
func PendingActionCount(actions []store.CorrectiveAction, actor store.Actor) int {
	n := 0
	for _, a := range actions {
		if a.Status == store.ActionCompleted {
			continue
		}
		if actor.Role == rbac.RoleFieldWorker &&
			!strings.Contains(a.AssignedTo, actor.Name) &&
			!strings.Contains(a.AssignedTo, "Field Team") {
			continue
		}
		n++
	}
	return n
}

// CategoryDistribution is sparse: only categories that occur appear.
func CategoryDistribution(incidents []store.Incident) map[store.IncidentCategory]int {
	counts := map[store.IncidentCategory]int{}
	for _, inc := range incidents {
		counts[inc.Category]++
	}
	return counts
}

// SeverityDistribution is dense: all four severities are always present so
// chart axes stay stable even at zero.
func SeverityDistribution(incidents []store.Incident) map[store.Severity]int {
	counts := map[store.Severity]int{}
	for _, s := range store.AllSeverities() {
		counts[s] = 0
	}
	for _, inc := range incidents {
		counts[inc.Severity]++
	}
	return counts
}

// ComplianceRate is the resolved share as a rounded percentage. An empty
// set reads as 100: no incidents means fully compliant by convention.
func ComplianceRate(incidents []store.Incident) int {
	if len(incidents) == 0 {
		return 100
	}
	resolved := 0
	for _, inc := range incidents {
		if inc.Status == store.IncidentResolved {
			resolved++
		}
	}
	return roundPct(resolved, len(incidents))
}

// EvidenceRate is the share of incidents carrying at least one evidence
// attachment, with the same zero-total convention as ComplianceRate.
func EvidenceRate(incidents []store.Incident) int {
	if len(incidents) == 0 {
		return 100
	}
	withEvidence := 0
	for _, inc := range incidents {
		if len(inc.EvidenceURLs) > 0 {
			withEvidence++
		}
	}
	return roundPct(withEvidence, len(incidents))
}

func CriticalCount(incidents []store.Incident) int {
	n := 0
	for _, inc := range incidents {
		if inc.Severity == store.SeverityCritical {
			n++
		}
	}
	return n
}

// RecentReports returns the first n incidents of the visible snapshot,
// which the store already keeps newest-first.
func RecentReports(visible []store.Incident, n int) []store.Incident {
	if n > len(visible) {
		n = len(visible)
	}
	out := make([]store.Incident, n)
	copy(out, visible[:n])
	return out
}

func roundPct(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
