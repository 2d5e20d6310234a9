package model

// ComplianceStatus is the overall status derived from a facility's records.
type ComplianceStatus string

const (
	ComplianceUnknown     ComplianceStatus = "unknown"
	ComplianceCompliant   ComplianceStatus = "compliant"
	ComplianceInViolation ComplianceStatus = "in_violation"
)

// ComplianceRecord is one program-level compliance entry for a facility.
type ComplianceRecord struct {
	Program        Program `json:"program"`
	Year           int     `json:"year,omitempty"`
	InViolation    bool    `json:"in_violation"`
	Description    string  `json:"description,omitempty"`
	PenaltyDollars float64 `json:"penalty_dollars,omitempty"`
}

// ComplianceHistory is the full compliance answer for one registry id.
type ComplianceHistory struct {
	Facility      *Facility          `json:"facility"`
	Records       []ComplianceRecord `json:"records"`
	OverallStatus ComplianceStatus   `json:"overall_status"`

	ViolationCount int     `json:"violation_count"`
	TotalPenalties float64 `json:"total_penalties"`
	YearsCovered   int     `json:"years_covered"`
}

// DeriveStatus computes the overall status: any violation wins, otherwise
// compliant when at least one record exists, otherwise unknown.
func (h *ComplianceHistory) DeriveStatus() {
	h.ViolationCount = 0
	h.TotalPenalties = 0
	for _, r := range h.Records {
		if r.InViolation {
			h.ViolationCount++
		}
		h.TotalPenalties += r.PenaltyDollars
	}
	switch {
	case h.ViolationCount > 0:
		h.OverallStatus = ComplianceInViolation
	case len(h.Records) > 0:
		h.OverallStatus = ComplianceCompliant
	default:
		h.OverallStatus = ComplianceUnknown
	}
}
