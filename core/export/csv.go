// Package export renders incident snapshots as regulator- or
// operations-facing CSV documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"safeflow/core/rbac"
	"safeflow/core/store"
	"safeflow/core/utils"
)

// Regulations selectable for the statutory log; the first is the default.
var Regulations = []string{
	"NUPRC - PIA 2021",
	"NMDPRA - Health & Safety",
	"DPR - Environmental",
}

func DefaultRegulation() string { return Regulations[0] }

func ValidRegulation(raw string) bool {
	for _, r := range Regulations {
		if strings.EqualFold(r, strings.TrimSpace(raw)) {
			return true
		}
	}
	return false
}

var statutoryHeader = []string{"Reg_ID", "Regulatory_Ref", "Category", "Severity", "Filing_Status", "Evidence_Count", "Date", "Location"}

var operationalHeader = []string{"ID", "Title", "Category", "Severity", "Status", "Date", "Location"}

// Document is a rendered export: CSV bytes plus the download filename.
type Document struct {
	Filename string
	Content  []byte
}

// Render projects the incidents into the role-appropriate CSV shape. A
// ComplianceOfficer receives the regulatory projection with a filing-status
// decision per row; every other role receives the operational projection
// with the raw status. The dual shape is deliberate.
func Render(incidents []store.Incident, actor store.Actor, regulation string, now time.Time) (*Document, error) {
	if !ValidRegulation(regulation) {
		regulation = DefaultRegulation()
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	statutory := actor.Role == rbac.RoleComplianceOfficer
	header := operationalHeader
	if statutory {
		header = statutoryHeader
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, inc := range incidents {
		var row []string
		if statutory {
			filing := "Pending"
			if inc.Status == store.IncidentResolved {
				filing = "Filed"
			}
			row = []string{
				inc.ID,
				regulation,
				string(inc.Category),
				string(inc.Severity),
				filing,
				fmt.Sprintf("%d", len(inc.EvidenceURLs)),
				utils.ISODate(inc.Timestamp),
				address(inc),
			}
		} else {
			row = []string{
				inc.ID,
				inc.Title,
				string(inc.Category),
				string(inc.Severity),
				string(inc.Status),
				utils.ISODate(inc.Timestamp),
				address(inc),
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	kind := "Operational_Report"
	if statutory {
		kind = "Statutory_Log"
	}
	return &Document{
		Filename: fmt.Sprintf("SafeFlow_%s_%s.csv", kind, utils.ISODate(now)),
		Content:  buf.Bytes(),
	}, nil
}

func address(inc store.Incident) string {
	if strings.TrimSpace(inc.Location.Address) == "" {
		return "Unknown"
	}
	return inc.Location.Address
}
