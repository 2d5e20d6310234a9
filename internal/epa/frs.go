package epa

import (
	"context"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/envirofacts-cli/internal/model"
)

const frsTable = "frs.frs_facility_site"

// FRS queries the Facility Registry Service, the master index of
// EPA-regulated facilities. FRS supports attribute filters only, so
// geographic narrowing happens client-side after a state-scoped query.
type FRS struct {
	client *Client
}

// NewFRS creates the FRS adapter.
func NewFRS(c *Client) *FRS {
	return &FRS{client: c}
}

// Source returns the program this adapter feeds.
func (f *FRS) Source() model.Program { return model.ProgramFRS }

// FacilitiesByState fetches every registered facility in a state. The
// caller filters by distance afterwards; FRS has no geographic operator.
func (f *FRS) FacilitiesByState(ctx context.Context, state string) ([]*model.Facility, bool, error) {
	normalized, err := NormalizeState(state)
	if err != nil {
		return nil, false, err
	}

	q := Query{Table: frsTable}.Where("state_code", OpEquals, normalized)
	records, truncated, err := f.client.QueryTable(ctx, q)
	if err != nil {
		return nil, false, &SourceUnavailable{Source: model.ProgramFRS, Err: err}
	}
	return parseFacilities(records), truncated, nil
}

// FacilitySearch is an attribute search over the FRS registry. At least
// one filter must be set.
type FacilitySearch struct {
	Name  string
	NAICS string
	State string
	ZIP   string
	City  string
}

// Validate normalizes the filters in place and rejects an empty search.
func (s *FacilitySearch) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.NAICS = strings.TrimSpace(s.NAICS)
	s.City = strings.TrimSpace(s.City)

	if s.State != "" {
		normalized, err := NormalizeState(s.State)
		if err != nil {
			return err
		}
		s.State = normalized
	}
	if s.ZIP != "" {
		normalized, err := NormalizeZIP(s.ZIP)
		if err != nil {
			return err
		}
		s.ZIP = normalized
	}
	if s.Name == "" && s.NAICS == "" && s.State == "" && s.ZIP == "" && s.City == "" {
		return eris.New("epa: facility search requires at least one filter")
	}
	return nil
}

// Search runs an attribute query over the registry.
func (f *FRS) Search(ctx context.Context, filter FacilitySearch) ([]*model.Facility, bool, error) {
	if err := filter.Validate(); err != nil {
		return nil, false, err
	}

	q := Query{Table: frsTable}
	if filter.Name != "" {
		q = q.Where("primary_name", OpContains, strings.ToUpper(filter.Name))
	}
	if filter.NAICS != "" {
		q = q.Where("naics_code", OpEquals, filter.NAICS)
	}
	if filter.State != "" {
		q = q.Where("state_code", OpEquals, filter.State)
	}
	if filter.ZIP != "" {
		q = q.Where("postal_code", OpEquals, filter.ZIP)
	}
	if filter.City != "" {
		q = q.Where("city_name", OpEquals, strings.ToUpper(filter.City))
	}

	records, truncated, err := f.client.QueryTable(ctx, q)
	if err != nil {
		return nil, false, &SourceUnavailable{Source: model.ProgramFRS, Err: err}
	}
	return parseFacilities(records), truncated, nil
}

// FacilityByRegistryID looks up a single facility.
func (f *FRS) FacilityByRegistryID(ctx context.Context, registryID string) (*model.Facility, error) {
	registryID = strings.TrimSpace(registryID)
	if registryID == "" {
		return nil, eris.New("epa: empty registry id")
	}

	q := Query{Table: frsTable}.Where("registry_id", OpEquals, registryID)
	records, _, err := f.client.QueryTable(ctx, q)
	if err != nil {
		return nil, &SourceUnavailable{Source: model.ProgramFRS, Err: err}
	}
	if len(records) == 0 {
		return nil, eris.Errorf("epa: no facility with registry id %s", registryID)
	}
	return parseFacility(records[0]), nil
}

func parseFacilities(records []Record) []*model.Facility {
	out := make([]*model.Facility, 0, len(records))
	for _, rec := range records {
		if f := parseFacility(rec); f != nil {
			out = append(out, f)
		}
	}
	return out
}

func parseFacility(rec Record) *model.Facility {
	id := rec.Str("registry_id")
	if id == "" {
		return nil
	}
	f := &model.Facility{
		RegistryID:  id,
		Name:        rec.Str("primary_name", "facility_name"),
		Street:      rec.Str("location_address"),
		City:        rec.Str("city_name"),
		State:       rec.Str("state_code"),
		ZIP:         rec.Str("postal_code"),
		Coordinates: rec.Coords([]string{"latitude83", "latitude"}, []string{"longitude83", "longitude"}),
		Programs:    []model.Program{model.ProgramFRS},
	}
	return f
}

// NormalizeState validates and upper-cases a two-letter state code.
func NormalizeState(state string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(state))
	if len(s) != 2 || !isAlpha(s) {
		return "", eris.Errorf("epa: invalid state code %q", state)
	}
	return s, nil
}

// NormalizeZIP strips non-digits and zero-pads to five digits, so "501"
// and "00501-1234" both normalize to a usable ZIP5.
func NormalizeZIP(zip string) (string, error) {
	var digits strings.Builder
	for _, r := range zip {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" || len(d) > 9 {
		return "", eris.Errorf("epa: invalid ZIP code %q", zip)
	}
	if len(d) > 5 {
		d = d[:5]
	}
	for len(d) < 5 {
		d = "0" + d
	}
	return d, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
