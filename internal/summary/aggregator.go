// Package summary coordinates the fan-out to every EPA data source and
// merges the per-source results into one EnvironmentalSummary.
package summary

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/envirofacts-cli/internal/geo"
	"github.com/sells-group/envirofacts-cli/internal/model"
)

const (
	// DefaultRadiusMiles applies when the caller leaves the radius unset.
	DefaultRadiusMiles = 5.0

	// MaxRadiusMiles bounds how much upstream data one request may pull.
	MaxRadiusMiles = 100.0

	// DefaultTopN is the length of the merged top-facilities list.
	DefaultTopN = 10
)

// Resolver turns free text into coordinates. Satisfied by *geo.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*geo.Location, error)
}

// FacilitySource feeds the FRS leg of the fan-out. FRS supports attribute
// filters only, so it is queried by state and filtered by distance here.
type FacilitySource interface {
	FacilitiesByState(ctx context.Context, state string) ([]*model.Facility, bool, error)
}

// ReleaseSource feeds the TRI leg.
type ReleaseSource interface {
	ReleasesInBox(ctx context.Context, box model.BoundingBox) ([]*model.ChemicalRelease, bool, error)
}

// WaterSource feeds the SDWIS leg.
type WaterSource interface {
	SystemsInBox(ctx context.Context, box model.BoundingBox) ([]*model.WaterSystem, bool, error)
}

// WasteSource feeds the RCRA leg.
type WasteSource interface {
	SitesInBox(ctx context.Context, box model.BoundingBox) ([]*model.WasteSite, bool, error)
}

// Aggregator resolves a location and fans out to all four sources
// concurrently. One source failing degrades its status entry; it never
// aborts the summary.
type Aggregator struct {
	resolver Resolver
	frs      FacilitySource
	tri      ReleaseSource
	sdwis    WaterSource
	rcra     WasteSource

	topN          int
	defaultRadius float64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTopN sets the merged top-facilities list length.
func WithTopN(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.topN = n
		}
	}
}

// WithDefaultRadius sets the radius applied when a caller leaves it unset.
func WithDefaultRadius(miles float64) Option {
	return func(a *Aggregator) {
		if miles > 0 && miles <= MaxRadiusMiles {
			a.defaultRadius = miles
		}
	}
}

// New wires an Aggregator from its collaborators.
func New(resolver Resolver, frs FacilitySource, tri ReleaseSource, sdwis WaterSource, rcra WasteSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		resolver: resolver,
		frs:      frs,
		tri:      tri,
		sdwis:    sdwis,
		rcra:     rcra,
		topN:     DefaultTopN,

		defaultRadius: DefaultRadiusMiles,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// fetchResult is one source's captured outcome. Exactly one of err or the
// record fields is meaningful.
type fetchResult struct {
	err       error
	truncated bool
}

// Summarize answers "what regulated activity exists near this place".
// Geocoding failure is terminal; everything downstream degrades.
func (a *Aggregator) Summarize(ctx context.Context, location string, radiusMiles float64) (*model.EnvironmentalSummary, error) {
	if radiusMiles == 0 {
		radiusMiles = a.defaultRadius
	}
	if radiusMiles < 0 || radiusMiles > MaxRadiusMiles {
		return nil, eris.Errorf("summary: radius must be within (0, %.0f] miles, got %f", MaxRadiusMiles, radiusMiles)
	}

	loc, err := a.resolver.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	center := loc.Coordinates
	box := geo.BoundingBoxForRadius(center, radiusMiles)

	var (
		facilities []*model.Facility
		releases   []*model.ChemicalRelease
		systems    []*model.WaterSystem
		sites      []*model.WasteSite
		results    = make(map[model.Program]*fetchResult, 4)
	)
	for _, p := range model.Programs() {
		results[p] = &fetchResult{}
	}

	// Result-or-error capture per source. The group never propagates
	// errors: a failing source must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(len(model.Programs()))

	g.Go(func() error {
		r := results[model.ProgramFRS]
		if loc.StateCode == "" {
			r.err = eris.New("summary: geocoder returned no state code for facility registry query")
			return nil
		}
		facilities, r.truncated, r.err = a.frs.FacilitiesByState(ctx, loc.StateCode)
		return nil
	})
	g.Go(func() error {
		r := results[model.ProgramTRI]
		releases, r.truncated, r.err = a.tri.ReleasesInBox(ctx, box)
		return nil
	})
	g.Go(func() error {
		r := results[model.ProgramSDWIS]
		systems, r.truncated, r.err = a.sdwis.SystemsInBox(ctx, box)
		return nil
	})
	g.Go(func() error {
		r := results[model.ProgramRCRA]
		sites, r.truncated, r.err = a.rcra.SitesInBox(ctx, box)
		return nil
	})
	_ = g.Wait()

	for p, r := range results {
		if r.err != nil {
			zap.L().Warn("source fetch failed, continuing with available data",
				zap.String("source", string(p)),
				zap.Error(r.err),
			)
		}
	}

	// Distance filter per source. Facilities without coordinates cannot
	// be ranked but stay in the counts.
	ranked := geo.FilterByRadius(facilities, center, radiusMiles)
	unlocated := withoutCoordinates(facilities)
	rankedReleases := geo.FilterByRadius(releases, center, radiusMiles)
	rankedSystems := geo.FilterByRadius(systems, center, radiusMiles)
	rankedSites := geo.FilterByRadius(sites, center, radiusMiles)

	counts := map[model.Program]int{
		model.ProgramFRS:   len(ranked) + len(unlocated),
		model.ProgramTRI:   len(rankedReleases),
		model.ProgramSDWIS: len(rankedSystems),
		model.ProgramRCRA:  len(rankedSites),
	}

	s := &model.EnvironmentalSummary{
		QueryID:        uuid.NewString(),
		Location:       location,
		Resolved:       loc.DisplayName,
		Center:         center,
		RadiusMiles:    radiusMiles,
		GeneratedAt:    time.Now().UTC(),
		FacilityCounts: counts,
		SourceStatuses: statuses(results, counts),
		TopFacilities:  mergeTopFacilities(ranked, rankedReleases, rankedSystems, rankedSites, center, a.topN),
		Releases:       rollupReleases(rankedReleases, a.topN),
		Water:          rollupViolations(rankedSystems),
		WasteSites:     rankedSites,
		Stats:          rollupStats(rankedReleases, rankedSystems, rankedSites),
		DataSources:    dataSourceNames(),
	}
	return s, nil
}

// statuses builds the per-source status map. The map always carries all
// four sources, failed included.
func statuses(results map[model.Program]*fetchResult, counts map[model.Program]int) map[model.Program]model.SourceStatus {
	out := make(map[model.Program]model.SourceStatus, len(results))
	for p, r := range results {
		switch {
		case r.err != nil:
			out[p] = model.SourceStatus{State: model.SourceFailed}
		case counts[p] == 0:
			out[p] = model.SourceStatus{State: model.SourceEmpty, Truncated: r.truncated}
		default:
			out[p] = model.SourceStatus{State: model.SourceSuccess, Truncated: r.truncated}
		}
	}
	return out
}

func withoutCoordinates(facilities []*model.Facility) []*model.Facility {
	var out []*model.Facility
	for _, f := range facilities {
		if f.Coordinates == nil {
			out = append(out, f)
		}
	}
	return out
}

func dataSourceNames() []string {
	return []string{
		"EPA Facility Registry Service (FRS)",
		"EPA Toxics Release Inventory (TRI)",
		"EPA Safe Drinking Water Information System (SDWIS)",
		"EPA Resource Conservation and Recovery Act (RCRAInfo)",
	}
}
