package model

import "time"

// SourceState is the outcome of one source's fetch within a summary.
type SourceState string

const (
	SourceSuccess SourceState = "success"
	SourceEmpty   SourceState = "empty"
	SourceFailed  SourceState = "failed"
)

// SourceStatus pairs a source's outcome with its truncation flag.
type SourceStatus struct {
	State     SourceState `json:"state"`
	Truncated bool        `json:"truncated,omitempty"`
}

// EnvironmentalSummary is the merged answer for a location query.
type EnvironmentalSummary struct {
	QueryID     string      `json:"query_id"`
	Location    string      `json:"location"`
	Resolved    string      `json:"resolved_location,omitempty"`
	Center      Coordinates `json:"center"`
	RadiusMiles float64     `json:"radius_miles"`
	GeneratedAt time.Time   `json:"generated_at"`

	FacilityCounts map[Program]int          `json:"facility_counts"`
	SourceStatuses map[Program]SourceStatus `json:"source_statuses"`

	TopFacilities []*Facility      `json:"top_facilities,omitempty"`
	Releases      ReleaseSummary   `json:"releases"`
	Water         ViolationSummary `json:"water_violations"`
	WasteSites    []*WasteSite     `json:"waste_sites,omitempty"`

	Stats       SummaryStats `json:"stats"`
	DataSources []string     `json:"data_sources"`
}

// SummaryStats holds secondary rollups surfaced alongside the counts.
type SummaryStats struct {
	PopulationServed       int `json:"population_served"`
	FacilitiesWithReleases int `json:"facilities_with_releases"`
	UniqueChemicals        int `json:"unique_chemicals"`
	HazardousWasteSites    int `json:"hazardous_waste_sites"`
}

// Degraded reports whether any source failed during the fan-out.
func (s *EnvironmentalSummary) Degraded() bool {
	for _, st := range s.SourceStatuses {
		if st.State == SourceFailed {
			return true
		}
	}
	return false
}
