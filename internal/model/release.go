package model

// ChemicalRelease is one TRI facility's reported releases for a chemical,
// split by environmental medium, in pounds.
type ChemicalRelease struct {
	FacilityID    string `json:"facility_id"`
	FacilityName  string `json:"facility_name"`
	ChemicalName  string `json:"chemical_name,omitempty"`
	CASNumber     string `json:"cas_number,omitempty"`
	ReportingYear int    `json:"reporting_year,omitempty"`

	AirLbs                  float64 `json:"air_lbs"`
	WaterLbs                float64 `json:"water_lbs"`
	LandLbs                 float64 `json:"land_lbs"`
	UndergroundInjectionLbs float64 `json:"underground_injection_lbs"`

	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	DistanceMiles *float64     `json:"distance_miles,omitempty"`
}

// TotalLbs is the sum of all media for this record.
func (r *ChemicalRelease) TotalLbs() float64 {
	return r.AirLbs + r.WaterLbs + r.LandLbs + r.UndergroundInjectionLbs
}

func (r *ChemicalRelease) Coordinate() *Coordinates { return r.Coordinates }

func (r *ChemicalRelease) SetDistanceMiles(d float64) { r.DistanceMiles = &d }

// ReleaseSummary rolls chemical releases up across facilities.
type ReleaseSummary struct {
	TotalLbs                float64 `json:"total_lbs"`
	AirLbs                  float64 `json:"air_lbs"`
	WaterLbs                float64 `json:"water_lbs"`
	LandLbs                 float64 `json:"land_lbs"`
	UndergroundInjectionLbs float64 `json:"underground_injection_lbs"`

	FacilityCount int `json:"facility_count"`
	ChemicalCount int `json:"chemical_count"`

	// TopChemicals and TopFacilities list groups by descending total
	// pounds, key ascending on ties.
	TopChemicals  []ReleaseTotal `json:"top_chemicals,omitempty"`
	TopFacilities []ReleaseTotal `json:"top_facilities,omitempty"`
}

// ReleaseTotal is one group's rolled-up release total, keyed by chemical
// name or facility name depending on the grouping.
type ReleaseTotal struct {
	Key      string  `json:"key"`
	TotalLbs float64 `json:"total_lbs"`
}
