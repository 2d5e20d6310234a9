package model

// Program identifies which EPA data system a record came from.
type Program string

const (
	ProgramFRS   Program = "frs"
	ProgramTRI   Program = "tri"
	ProgramSDWIS Program = "sdwis"
	ProgramRCRA  Program = "rcra"
)

// Programs lists every source program in canonical order.
func Programs() []Program {
	return []Program{ProgramFRS, ProgramTRI, ProgramSDWIS, ProgramRCRA}
}

// Facility is a regulated facility from the FRS registry.
type Facility struct {
	RegistryID    string       `json:"registry_id"`
	Name          string       `json:"name"`
	Street        string       `json:"street,omitempty"`
	City          string       `json:"city,omitempty"`
	State         string       `json:"state,omitempty"`
	ZIP           string       `json:"zip,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	DistanceMiles *float64     `json:"distance_miles,omitempty"`

	// Programs the facility appears under; grows when the same registry
	// id shows up in more than one source.
	Programs []Program `json:"programs,omitempty"`
}

// Coordinate returns the facility location, or nil when FRS carried none.
func (f *Facility) Coordinate() *Coordinates { return f.Coordinates }

// SetDistanceMiles records the great-circle distance from the query point.
func (f *Facility) SetDistanceMiles(d float64) { f.DistanceMiles = &d }

// HasProgram reports whether the facility is already tagged with p.
func (f *Facility) HasProgram(p Program) bool {
	for _, have := range f.Programs {
		if have == p {
			return true
		}
	}
	return false
}

// AddProgram tags the facility with p if not already present.
func (f *Facility) AddProgram(p Program) {
	if !f.HasProgram(p) {
		f.Programs = append(f.Programs, p)
	}
}

// WasteSite is a RCRA hazardous-waste handler.
type WasteSite struct {
	HandlerID     string       `json:"handler_id"`
	Name          string       `json:"name"`
	State         string       `json:"state,omitempty"`
	GeneratorType string       `json:"generator_type,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	DistanceMiles *float64     `json:"distance_miles,omitempty"`
}

func (w *WasteSite) Coordinate() *Coordinates { return w.Coordinates }

func (w *WasteSite) SetDistanceMiles(d float64) { w.DistanceMiles = &d }
