package summary

import (
	"sort"

	"github.com/sells-group/envirofacts-cli/internal/geo"
	"github.com/sells-group/envirofacts-cli/internal/model"
)

// mergeTopFacilities unions facility-shaped records across sources,
// deduplicates by registry identifier, re-sorts by distance, and truncates
// to topN. Registry identifiers are source-scoped: only an exact string
// match is treated as the same physical facility, in which case program
// flags merge onto one entry.
func mergeTopFacilities(facilities []*model.Facility, releases []*model.ChemicalRelease, systems []*model.WaterSystem, sites []*model.WasteSite, center model.Coordinates, topN int) []*model.Facility {
	byID := make(map[string]*model.Facility, len(facilities))
	merged := make([]*model.Facility, 0, len(facilities))

	add := func(f *model.Facility) {
		if existing, ok := byID[f.RegistryID]; ok {
			for _, p := range f.Programs {
				existing.AddProgram(p)
			}
			return
		}
		byID[f.RegistryID] = f
		merged = append(merged, f)
	}

	for _, f := range facilities {
		add(f)
	}
	for _, r := range releases {
		add(&model.Facility{
			RegistryID:  r.FacilityID,
			Name:        r.FacilityName,
			Coordinates: r.Coordinates,
			Programs:    []model.Program{model.ProgramTRI},
		})
	}
	for _, sys := range systems {
		add(&model.Facility{
			RegistryID:  sys.PWSID,
			Name:        sys.Name,
			State:       sys.State,
			Coordinates: sys.Coordinates,
			Programs:    []model.Program{model.ProgramSDWIS},
		})
	}
	for _, s := range sites {
		add(&model.Facility{
			RegistryID:  s.HandlerID,
			Name:        s.Name,
			State:       s.State,
			Coordinates: s.Coordinates,
			Programs:    []model.Program{model.ProgramRCRA},
		})
	}

	ranked := geo.RankByDistance(merged, center)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// rollupReleases groups ranked release records by facility and by
// chemical. Top lists order by descending total pounds with alphabetical
// key tie-break for determinism.
func rollupReleases(releases []*model.ChemicalRelease, topN int) model.ReleaseSummary {
	s := model.ReleaseSummary{}
	byChemical := make(map[string]float64)
	byFacility := make(map[string]float64)

	for _, r := range releases {
		s.AirLbs += r.AirLbs
		s.WaterLbs += r.WaterLbs
		s.LandLbs += r.LandLbs
		s.UndergroundInjectionLbs += r.UndergroundInjectionLbs
		s.TotalLbs += r.TotalLbs()

		if r.ChemicalName != "" {
			byChemical[r.ChemicalName] += r.TotalLbs()
		}
		key := r.FacilityName
		if key == "" {
			key = r.FacilityID
		}
		byFacility[key] += r.TotalLbs()
	}

	s.ChemicalCount = len(byChemical)
	s.FacilityCount = len(byFacility)
	s.TopChemicals = topTotals(byChemical, topN)
	s.TopFacilities = topTotals(byFacility, topN)
	return s
}

func topTotals(totals map[string]float64, n int) []model.ReleaseTotal {
	out := make([]model.ReleaseTotal, 0, len(totals))
	for key, total := range totals {
		out = append(out, model.ReleaseTotal{Key: key, TotalLbs: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalLbs != out[j].TotalLbs {
			return out[i].TotalLbs > out[j].TotalLbs
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// rollupViolations counts active vs resolved violations grouped by water
// system.
func rollupViolations(systems []*model.WaterSystem) model.ViolationSummary {
	s := model.ViolationSummary{BySystem: make(map[string]int)}
	for _, sys := range systems {
		if len(sys.Violations) == 0 {
			continue
		}
		s.SystemsInViolation++
		for _, v := range sys.Violations {
			s.TotalViolations++
			s.BySystem[sys.PWSID]++
			if v.Status == model.ViolationActive {
				s.ActiveViolations++
			} else {
				s.ResolvedViolations++
			}
			if v.IsHealthBased {
				s.HealthBasedViolations++
			}
		}
	}
	return s
}

func rollupStats(releases []*model.ChemicalRelease, systems []*model.WaterSystem, sites []*model.WasteSite) model.SummaryStats {
	stats := model.SummaryStats{HazardousWasteSites: len(sites)}

	chemicals := make(map[string]struct{})
	releasing := make(map[string]struct{})
	for _, r := range releases {
		if r.ChemicalName != "" {
			chemicals[r.ChemicalName] = struct{}{}
		}
		if r.TotalLbs() > 0 {
			releasing[r.FacilityID] = struct{}{}
		}
	}
	stats.UniqueChemicals = len(chemicals)
	stats.FacilitiesWithReleases = len(releasing)

	for _, sys := range systems {
		stats.PopulationServed += sys.PopulationServed
	}
	return stats
}
