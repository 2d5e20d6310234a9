package epa

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/envirofacts-cli/internal/model"
)

const (
	sdwisSystemTable    = "sdwis.water_system"
	sdwisViolationTable = "sdwis.violation"
)

// SDWIS queries the Safe Drinking Water Information System: public water
// systems plus their violation records.
type SDWIS struct {
	client *Client
}

// NewSDWIS creates the SDWIS adapter.
func NewSDWIS(c *Client) *SDWIS {
	return &SDWIS{client: c}
}

// Source returns the program this adapter feeds.
func (s *SDWIS) Source() model.Program { return model.ProgramSDWIS }

// SystemsInBox fetches water systems inside the bounding box, each with
// its violations attached. A violation lookup failing for one system
// degrades that system to zero violations rather than failing the fetch.
func (s *SDWIS) SystemsInBox(ctx context.Context, box model.BoundingBox) ([]*model.WaterSystem, bool, error) {
	if err := box.Validate(); err != nil {
		return nil, false, err
	}
	q := Query{Table: sdwisSystemTable}.
		Where("latitude", OpGreaterThan, formatCoord(box.MinLatitude)).
		Where("latitude", OpLessThan, formatCoord(box.MaxLatitude)).
		Where("longitude", OpGreaterThan, formatCoord(box.MinLongitude)).
		Where("longitude", OpLessThan, formatCoord(box.MaxLongitude))

	records, truncated, err := s.client.QueryTable(ctx, q)
	if err != nil {
		return nil, false, &SourceUnavailable{Source: model.ProgramSDWIS, Err: err}
	}

	systems := make([]*model.WaterSystem, 0, len(records))
	for _, rec := range records {
		if sys := parseWaterSystem(rec); sys != nil {
			systems = append(systems, sys)
		}
	}

	for _, sys := range systems {
		violations, err := s.violationsForSystem(ctx, sys.PWSID)
		if err != nil {
			zap.L().Warn("sdwis violation lookup failed",
				zap.String("pwsid", sys.PWSID),
				zap.Error(err),
			)
			continue
		}
		sys.Violations = violations
	}
	return systems, truncated, nil
}

func (s *SDWIS) violationsForSystem(ctx context.Context, pwsid string) ([]model.WaterViolation, error) {
	q := Query{Table: sdwisViolationTable}.Where("pwsid", OpEquals, pwsid)
	records, _, err := s.client.QueryTable(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]model.WaterViolation, 0, len(records))
	for _, rec := range records {
		out = append(out, parseViolation(rec, pwsid))
	}
	return out, nil
}

func parseWaterSystem(rec Record) *model.WaterSystem {
	id := rec.Str("pwsid", "water_system_id")
	if id == "" {
		return nil
	}
	sys := &model.WaterSystem{
		PWSID:       id,
		Name:        rec.Str("pws_name", "system_name"),
		State:       rec.Str("state_code", "primacy_agency_code"),
		SystemType:  rec.Str("pws_type_code"),
		Coordinates: rec.Coords([]string{"latitude"}, []string{"longitude"}),
	}
	if pop, ok := rec.Int("population_served_count", "population_served"); ok && pop > 0 {
		sys.PopulationServed = pop
	}
	return sys
}

func parseViolation(rec Record, pwsid string) model.WaterViolation {
	v := model.WaterViolation{
		PWSID:         pwsid,
		ViolationID:   rec.Str("violation_id"),
		Code:          rec.Str("violation_code"),
		Category:      rec.Str("violation_category_code", "violation_category"),
		IsHealthBased: strings.EqualFold(rec.Str("is_health_based_ind"), "Y"),
		Status:        violationStatus(rec),
		BeginDate:     parseDate(rec.Str("compl_per_begin_date", "begin_date")),
		EndDate:       parseDate(rec.Str("compl_per_end_date", "end_date")),
	}
	return v
}

// violationStatus maps SDWIS compliance wording onto active/resolved. An
// open compliance period (no end date) also reads as active.
func violationStatus(rec Record) model.ViolationStatus {
	status := strings.ToUpper(rec.Str("violation_status", "compliance_status_code"))
	switch {
	case strings.Contains(status, "RESOLVED"), strings.Contains(status, "RETURNED TO COMPLIANCE"):
		return model.ViolationResolved
	case status != "":
		return model.ViolationActive
	case rec.Str("compl_per_end_date", "end_date") == "":
		return model.ViolationActive
	default:
		return model.ViolationResolved
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "02-Jan-06", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
