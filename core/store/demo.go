package store

import "time"

// Demo fixtures mirroring the reference dataset; loaded only when
// SAFEFLOW_DEMO_SEED is set.

func DemoIncidents() []Incident {
	return []Incident{
		{
			ID:           "INC-241120-0001",
			Title:        "Gas leakage near Compressor A",
			Description:  "Minor gas leak detected during routine inspection of the primary compressor unit. No ignition occurred.",
			Category:     CategoryGasLeak,
			Severity:     SeverityHigh,
			ReporterID:   "USR-001",
			ReporterName: "John Doe",
			Timestamp:    time.Date(2024, 11, 20, 8, 30, 0, 0, time.UTC),
			Location:     Location{Lat: 6.5244, Lng: 3.3792, Address: "Port Harcourt Terminal"},
			EvidenceURLs: []string{"https://picsum.photos/400/300"},
			Status:       IncidentUnderInvestigation,
		},
		{
			ID:           "INC-241122-0002",
			Title:        "Near miss - Loose scaffolding",
			Description:  "Loose scaffolding plank spotted on Level 3 of the storage tank. Area cordoned off immediately.",
			Category:     CategoryNearMiss,
			Severity:     SeverityMedium,
			ReporterID:   "USR-999",
			ReporterName: "Efe Okoro",
			Timestamp:    time.Date(2024, 11, 22, 14, 15, 0, 0, time.UTC),
			Location:     Location{Lat: 6.5244, Lng: 3.3792, Address: "Lagos Offshore"},
			EvidenceURLs: []string{},
			Status:       IncidentReported,
		},
	}
}

func DemoActions() []CorrectiveAction {
	return []CorrectiveAction{
		{
			ID:         "ACT-241120-0001",
			IncidentID: "INC-241120-0001",
			Title:      "Replace seal on Compressor A",
			AssignedTo: "Maintenance Team B",
			Deadline:   "2024-11-25",
			Priority:   SeverityHigh,
			Status:     ActionInProgress,
		},
	}
}
