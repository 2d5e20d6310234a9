// Package model holds the domain types shared across the EPA data adapters,
// the distance ranker, and the summary aggregator.
package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the point lies within valid WGS84 ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return eris.Errorf("model: invalid latitude %f", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return eris.Errorf("model: invalid longitude %f", c.Longitude)
	}
	return nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

// BoundingBox is a lat/lon rectangle used for server-side geographic filters.
type BoundingBox struct {
	MinLatitude  float64 `json:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// Validate checks that the box is well-formed and within valid ranges.
func (b BoundingBox) Validate() error {
	if b.MaxLatitude <= b.MinLatitude {
		return eris.New("model: max latitude must be greater than min latitude")
	}
	if b.MaxLongitude <= b.MinLongitude {
		return eris.New("model: max longitude must be greater than min longitude")
	}
	for _, c := range []Coordinates{
		{Latitude: b.MinLatitude, Longitude: b.MinLongitude},
		{Latitude: b.MaxLatitude, Longitude: b.MaxLongitude},
	} {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
