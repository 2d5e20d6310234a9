package epa

import (
	"context"

	"github.com/sells-group/envirofacts-cli/internal/model"
)

const rcraHandlerTable = "rcra.rcra_handler"

// RCRA queries the Resource Conservation and Recovery Act handler
// registry for hazardous-waste sites.
type RCRA struct {
	client *Client
}

// NewRCRA creates the RCRA adapter.
func NewRCRA(c *Client) *RCRA {
	return &RCRA{client: c}
}

// Source returns the program this adapter feeds.
func (r *RCRA) Source() model.Program { return model.ProgramRCRA }

// SitesInBox fetches hazardous-waste handlers inside the bounding box.
func (r *RCRA) SitesInBox(ctx context.Context, box model.BoundingBox) ([]*model.WasteSite, bool, error) {
	if err := box.Validate(); err != nil {
		return nil, false, err
	}
	q := Query{Table: rcraHandlerTable}.
		Where("latitude83", OpGreaterThan, formatCoord(box.MinLatitude)).
		Where("latitude83", OpLessThan, formatCoord(box.MaxLatitude)).
		Where("longitude83", OpGreaterThan, formatCoord(box.MinLongitude)).
		Where("longitude83", OpLessThan, formatCoord(box.MaxLongitude))

	records, truncated, err := r.client.QueryTable(ctx, q)
	if err != nil {
		return nil, false, &SourceUnavailable{Source: model.ProgramRCRA, Err: err}
	}

	out := make([]*model.WasteSite, 0, len(records))
	for _, rec := range records {
		if site := parseWasteSite(rec); site != nil {
			out = append(out, site)
		}
	}
	return out, truncated, nil
}

func parseWasteSite(rec Record) *model.WasteSite {
	id := rec.Str("handler_id", "epa_handler_id")
	if id == "" {
		return nil
	}
	return &model.WasteSite{
		HandlerID:     id,
		Name:          rec.Str("handler_name", "hname"),
		State:         rec.Str("location_state", "state_code"),
		GeneratorType: rec.Str("fed_waste_generator_desc", "generator_status"),
		Coordinates:   rec.Coords([]string{"latitude83", "latitude"}, []string{"longitude83", "longitude"}),
	}
}
