package epa

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/envirofacts-cli/internal/model"
)

const (
	triReportingTable  = "tri.tri_reporting_form"
	rcraViolationTable = "rcra.cviolation"

	// DefaultComplianceYears is the default lookback window.
	DefaultComplianceYears = 5
	maxComplianceYears     = 20
)

// ComplianceRequest asks for a facility's compliance history.
type ComplianceRequest struct {
	RegistryID string
	// Program optionally narrows the lookup to "TRI" or "RCRA";
	// empty means both.
	Program string
	// Years is the lookback window in years, 1-20.
	Years int
}

// Validate normalizes the request in place.
func (r *ComplianceRequest) Validate() error {
	r.RegistryID = strings.TrimSpace(r.RegistryID)
	if r.RegistryID == "" {
		return eris.New("epa: compliance history requires a registry id")
	}
	r.Program = strings.ToUpper(strings.TrimSpace(r.Program))
	switch r.Program {
	case "", "TRI", "RCRA":
	default:
		return eris.Errorf("epa: unknown compliance program %q", r.Program)
	}
	if r.Years == 0 {
		r.Years = DefaultComplianceYears
	}
	if r.Years < 1 || r.Years > maxComplianceYears {
		return eris.Errorf("epa: compliance years must be between 1 and %d, got %d", maxComplianceYears, r.Years)
	}
	return nil
}

// ComplianceService assembles per-program compliance records for one
// facility.
type ComplianceService struct {
	client *Client
	frs    *FRS
}

// NewComplianceService creates the service on top of a shared client.
func NewComplianceService(c *Client) *ComplianceService {
	return &ComplianceService{client: c, frs: NewFRS(c)}
}

// History fetches facility info plus per-program compliance records and
// derives an overall status. A failed FRS lookup degrades to a stub
// facility so program records still come back.
func (s *ComplianceService) History(ctx context.Context, req ComplianceRequest) (*model.ComplianceHistory, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	facility, err := s.frs.FacilityByRegistryID(ctx, req.RegistryID)
	if err != nil {
		zap.L().Warn("frs facility lookup failed, using stub",
			zap.String("registry_id", req.RegistryID),
			zap.Error(err),
		)
		facility = &model.Facility{RegistryID: req.RegistryID, Name: "Unknown facility"}
	}

	cutoffYear := time.Now().Year() - req.Years
	history := &model.ComplianceHistory{
		Facility:     facility,
		Records:      []model.ComplianceRecord{},
		YearsCovered: req.Years,
	}

	if req.Program == "" || req.Program == "TRI" {
		records, err := s.triRecords(ctx, req.RegistryID, cutoffYear)
		if err != nil {
			return nil, err
		}
		history.Records = append(history.Records, records...)
	}
	if req.Program == "" || req.Program == "RCRA" {
		records, err := s.rcraRecords(ctx, req.RegistryID, cutoffYear)
		if err != nil {
			return nil, err
		}
		history.Records = append(history.Records, records...)
	}

	history.DeriveStatus()
	return history, nil
}

// triRecords maps TRI reporting forms to compliance entries. A filed form
// is evidence of compliance with reporting requirements, not a violation.
func (s *ComplianceService) triRecords(ctx context.Context, registryID string, cutoffYear int) ([]model.ComplianceRecord, error) {
	q := Query{Table: triReportingTable}.Where("tri_facility_id", OpEquals, registryID)
	records, _, err := s.client.QueryTable(ctx, q)
	if err != nil {
		return nil, &SourceUnavailable{Source: model.ProgramTRI, Err: err}
	}

	out := make([]model.ComplianceRecord, 0, len(records))
	for _, rec := range records {
		year, _ := rec.Int("reporting_year")
		if year != 0 && year < cutoffYear {
			continue
		}
		out = append(out, model.ComplianceRecord{
			Program:     model.ProgramTRI,
			Year:        year,
			InViolation: false,
			Description: "TRI report filed for " + rec.Str("chem_name", "chemical_name"),
		})
	}
	return out, nil
}

func (s *ComplianceService) rcraRecords(ctx context.Context, registryID string, cutoffYear int) ([]model.ComplianceRecord, error) {
	q := Query{Table: rcraViolationTable}.Where("handler_id", OpEquals, registryID)
	records, _, err := s.client.QueryTable(ctx, q)
	if err != nil {
		return nil, &SourceUnavailable{Source: model.ProgramRCRA, Err: err}
	}

	out := make([]model.ComplianceRecord, 0, len(records))
	for _, rec := range records {
		year := violationYear(rec.Str("date_violation_determined", "determined_date"))
		if year != 0 && year < cutoffYear {
			continue
		}
		record := model.ComplianceRecord{
			Program:     model.ProgramRCRA,
			Year:        year,
			InViolation: true,
			Description: rec.Str("violation_type_desc", "violation_type"),
		}
		if penalty, ok := rec.Float("final_monetary_amount", "proposed_penalty_amount"); ok && penalty > 0 {
			record.PenaltyDollars = penalty
		}
		out = append(out, record)
	}
	return out, nil
}

// violationYear pulls the year out of date strings like "2021-04-07" or
// "07-Apr-21"; zero means unknown.
func violationYear(date string) int {
	if t := parseDate(date); t != nil {
		return t.Year()
	}
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil && y > 1900 && y < 2200 {
			return y
		}
	}
	return 0
}
