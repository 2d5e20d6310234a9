package epa

import (
	"context"
	"fmt"

	"github.com/sells-group/envirofacts-cli/internal/model"
)

const triTable = "tri.tri_facility"

// TRI queries the Toxics Release Inventory. TRI carries facility
// coordinates, so the bounding box filters server-side; records still get
// an exact distance check afterwards.
type TRI struct {
	client *Client
}

// NewTRI creates the TRI adapter.
func NewTRI(c *Client) *TRI {
	return &TRI{client: c}
}

// Source returns the program this adapter feeds.
func (t *TRI) Source() model.Program { return model.ProgramTRI }

// ReleasesInBox fetches chemical-release records inside the bounding box.
func (t *TRI) ReleasesInBox(ctx context.Context, box model.BoundingBox) ([]*model.ChemicalRelease, bool, error) {
	if err := box.Validate(); err != nil {
		return nil, false, err
	}
	q := Query{Table: triTable}.
		Where("pref_latitude", OpGreaterThan, formatCoord(box.MinLatitude)).
		Where("pref_latitude", OpLessThan, formatCoord(box.MaxLatitude)).
		Where("pref_longitude", OpGreaterThan, formatCoord(box.MinLongitude)).
		Where("pref_longitude", OpLessThan, formatCoord(box.MaxLongitude))

	records, truncated, err := t.client.QueryTable(ctx, q)
	if err != nil {
		return nil, false, &SourceUnavailable{Source: model.ProgramTRI, Err: err}
	}

	out := make([]*model.ChemicalRelease, 0, len(records))
	for _, rec := range records {
		if r := parseRelease(rec); r != nil {
			out = append(out, r)
		}
	}
	return out, truncated, nil
}

func parseRelease(rec Record) *model.ChemicalRelease {
	id := rec.Str("tri_facility_id")
	if id == "" {
		return nil
	}

	r := &model.ChemicalRelease{
		FacilityID:   id,
		FacilityName: rec.Str("facility_name", "fac_name"),
		ChemicalName: rec.Str("chem_name", "chemical_name"),
		CASNumber:    rec.Str("cas_chem_name", "cas_registry_number"),
		// TRI prefers the manually corrected coordinates, falling back
		// to the facility-reported pair.
		Coordinates: rec.Coords(
			[]string{"pref_latitude", "fac_fac_latitude"},
			[]string{"pref_longitude", "fac_fac_longitude"},
		),
	}
	if year, ok := rec.Int("reporting_year"); ok {
		r.ReportingYear = year
	}

	// Quantities are non-negative pounds; negative or missing values
	// read as zero.
	r.AirLbs = nonNegative(rec, "air_total_release", "fugitive_air_total", "total_air")
	r.WaterLbs = nonNegative(rec, "water_total_release", "total_water")
	r.LandLbs = nonNegative(rec, "land_total_release", "total_land")
	r.UndergroundInjectionLbs = nonNegative(rec, "underground_injection_total", "total_underground")
	return r
}

func nonNegative(rec Record, keys ...string) float64 {
	if v, ok := rec.Float(keys...); ok && v > 0 {
		return v
	}
	return 0
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
