package epa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordStr(t *testing.T) {
	rec := Record{"PRIMARY_NAME": "ACME CORP", "empty": "  ", "num": 42.0}

	// Case-insensitive lookup.
	assert.Equal(t, "ACME CORP", rec.Str("primary_name"))
	// Fallback past blank values.
	assert.Equal(t, "ACME CORP", rec.Str("empty", "primary_name"))
	// Numbers render as strings.
	assert.Equal(t, "42", rec.Str("num"))
	assert.Equal(t, "", rec.Str("missing"))
}

func TestRecordFloat(t *testing.T) {
	rec := Record{
		"as_number": 1200.5,
		"as_string": "300",
		"commas":    "1,500.25",
		"junk":      "n/a",
	}

	v, ok := rec.Float("as_number")
	assert.True(t, ok)
	assert.Equal(t, 1200.5, v)

	v, ok = rec.Float("as_string")
	assert.True(t, ok)
	assert.Equal(t, 300.0, v)

	v, ok = rec.Float("commas")
	assert.True(t, ok)
	assert.Equal(t, 1500.25, v)

	_, ok = rec.Float("junk")
	assert.False(t, ok)

	// Fallback chain skips unparseable values.
	v, ok = rec.Float("junk", "as_string")
	assert.True(t, ok)
	assert.Equal(t, 300.0, v)
}

func TestRecordCoords(t *testing.T) {
	rec := Record{"pref_latitude": "40.75", "pref_longitude": -73.99}
	c := rec.Coords([]string{"pref_latitude"}, []string{"pref_longitude"})
	assert.NotNil(t, c)
	assert.InDelta(t, 40.75, c.Latitude, 1e-9)
	assert.InDelta(t, -73.99, c.Longitude, 1e-9)
}

func TestRecordCoords_Fallback(t *testing.T) {
	rec := Record{"fac_fac_latitude": 40.7, "fac_fac_longitude": -74.0}
	c := rec.Coords(
		[]string{"pref_latitude", "fac_fac_latitude"},
		[]string{"pref_longitude", "fac_fac_longitude"},
	)
	assert.NotNil(t, c)
	assert.InDelta(t, 40.7, c.Latitude, 1e-9)
}

func TestRecordCoords_Invalid(t *testing.T) {
	// Missing half.
	assert.Nil(t, Record{"latitude": 40.0}.Coords([]string{"latitude"}, []string{"longitude"}))
	// Null island means never geocoded.
	assert.Nil(t, Record{"latitude": 0.0, "longitude": 0.0}.Coords([]string{"latitude"}, []string{"longitude"}))
	// Out of range.
	assert.Nil(t, Record{"latitude": 95.0, "longitude": -74.0}.Coords([]string{"latitude"}, []string{"longitude"}))
}
