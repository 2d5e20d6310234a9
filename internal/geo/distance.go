package geo

import (
	"math"
	"sort"

	"github.com/sells-group/envirofacts-cli/internal/model"
)

// EarthRadiusMiles is the mean earth radius used for all distance math.
const EarthRadiusMiles = 3959.0

// Haversine returns the great-circle distance between two points in miles.
func Haversine(a, b model.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h))
}

// BoundingBoxForRadius returns a lat/lon rectangle that contains every point
// within radiusMiles of center. The box over-approximates near the poles and
// is clamped to valid coordinate ranges; callers still filter by true
// distance afterwards.
func BoundingBoxForRadius(center model.Coordinates, radiusMiles float64) model.BoundingBox {
	latDelta := radiusMiles / EarthRadiusMiles * 180 / math.Pi

	// Longitude degrees shrink with latitude. Guard the cosine so a
	// center near a pole still yields a full-width box.
	cosLat := math.Cos(center.Latitude * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	lonDelta := latDelta / cosLat

	return model.BoundingBox{
		MinLatitude:  clamp(center.Latitude-latDelta, -90, 90),
		MaxLatitude:  clamp(center.Latitude+latDelta, -90, 90),
		MinLongitude: clamp(center.Longitude-lonDelta, -180, 180),
		MaxLongitude: clamp(center.Longitude+lonDelta, -180, 180),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Locatable is a record that may carry coordinates and can receive its
// computed distance from a query point.
type Locatable interface {
	Coordinate() *model.Coordinates
	SetDistanceMiles(d float64)
}

// FilterByRadius computes each record's distance from center, keeps records
// within radiusMiles (inclusive boundary), and returns them sorted nearest
// first. The sort is stable so equidistant records keep their input order.
// Records without coordinates cannot be ranked and are dropped. A radius of
// zero keeps only records at the exact query point.
func FilterByRadius[T Locatable](records []T, center model.Coordinates, radiusMiles float64) []T {
	type entry struct {
		rec  T
		dist float64
	}
	kept := make([]entry, 0, len(records))
	for _, rec := range records {
		coords := rec.Coordinate()
		if coords == nil {
			continue
		}
		d := Haversine(center, *coords)
		if d <= radiusMiles {
			rec.SetDistanceMiles(d)
			kept = append(kept, entry{rec: rec, dist: d})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].dist < kept[j].dist
	})

	out := make([]T, len(kept))
	for i, e := range kept {
		out[i] = e.rec
	}
	return out
}

// RankByDistance computes distances for every record with coordinates and
// sorts nearest first without dropping anything. Records lacking coordinates
// sort last, keeping their relative order.
func RankByDistance[T Locatable](records []T, center model.Coordinates) []T {
	type entry struct {
		rec  T
		dist float64
	}
	ranked := make([]entry, len(records))
	for i, rec := range records {
		d := math.MaxFloat64
		if coords := rec.Coordinate(); coords != nil {
			d = Haversine(center, *coords)
			rec.SetDistanceMiles(d)
		}
		ranked[i] = entry{rec: rec, dist: d}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].dist < ranked[j].dist
	})

	out := make([]T, len(ranked))
	for i, e := range ranked {
		out[i] = e.rec
	}
	return out
}
