package epa

import (
	"strconv"
	"strings"

	"github.com/sells-group/envirofacts-cli/internal/model"
)

// Record is one flat row from an Envirofacts JSON response. Numeric columns
// frequently arrive as strings, so typed access goes through the lenient
// helpers below.
type Record map[string]any

// Str returns the first non-empty value among keys, rendered as a string.
// Key lookup is case-insensitive because Envirofacts is inconsistent about
// column-name casing across tables.
func (r Record) Str(keys ...string) string {
	for _, key := range keys {
		if v, ok := r.lookup(key); ok {
			switch s := v.(type) {
			case string:
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

// Float returns the first parseable numeric value among keys.
func (r Record) Float(keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := r.lookup(key)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
			if cleaned == "" {
				continue
			}
			if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Int is Float truncated to an integer.
func (r Record) Int(keys ...string) (int, bool) {
	if f, ok := r.Float(keys...); ok {
		return int(f), true
	}
	return 0, false
}

// Coords parses a coordinate pair, trying latKeys and lonKeys in order.
// Returns nil when either half is missing, unparseable, or out of range —
// records without usable coordinates are kept, just not distance-ranked.
func (r Record) Coords(latKeys, lonKeys []string) *model.Coordinates {
	lat, ok := r.Float(latKeys...)
	if !ok {
		return nil
	}
	lon, ok := r.Float(lonKeys...)
	if !ok {
		return nil
	}
	// (0,0) is Envirofacts shorthand for "never geocoded".
	if lat == 0 && lon == 0 {
		return nil
	}
	c := model.Coordinates{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return nil
	}
	return &c
}

func (r Record) lookup(key string) (any, bool) {
	if v, ok := r[key]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
