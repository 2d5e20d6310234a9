package main

import (
	"encoding/json"
	"io"

	"github.com/sells-group/envirofacts-cli/internal/epa"
	"github.com/sells-group/envirofacts-cli/internal/geo"
	"github.com/sells-group/envirofacts-cli/internal/resilience"
	"github.com/sells-group/envirofacts-cli/internal/summary"
)

// appEnv wires the shared collaborators every subcommand needs.
type appEnv struct {
	Client     *epa.Client
	Resolver   *geo.Resolver
	Aggregator *summary.Aggregator
	FRS        *epa.FRS
	Compliance *epa.ComplianceService
}

func initEnv() *appEnv {
	retryCfg := resilience.FromRetryConfig(cfg.EPA.MaxRetries, 0, 0, 0, -1)

	client := epa.NewClient(
		epa.WithBaseURL(cfg.EPA.BaseURL),
		epa.WithUserAgent(cfg.EPA.UserAgent),
		epa.WithTimeout(cfg.EPA.Timeout()),
		epa.WithMaxResults(cfg.EPA.MaxResults),
		epa.WithRetryConfig(retryCfg),
		epa.WithBreakerConfig(resilience.FromCircuitConfig(cfg.EPA.BreakerThreshold, cfg.EPA.BreakerResetSecs)),
	)
	resolver := geo.NewResolver(
		geo.WithBaseURL(cfg.Geocode.BaseURL),
		geo.WithUserAgent(cfg.Geocode.UserAgent),
		geo.WithMinInterval(cfg.Geocode.MinInterval()),
		geo.WithRetryConfig(retryCfg),
	)

	frs := epa.NewFRS(client)
	aggregator := summary.New(
		resolver,
		frs,
		epa.NewTRI(client),
		epa.NewSDWIS(client),
		epa.NewRCRA(client),
		summary.WithTopN(cfg.Summary.TopFacilities),
		summary.WithDefaultRadius(cfg.Summary.DefaultRadiusMiles),
	)

	return &appEnv{
		Client:     client,
		Resolver:   resolver,
		Aggregator: aggregator,
		FRS:        frs,
		Compliance: epa.NewComplianceService(client),
	}
}

// printJSON renders a result as indented JSON on the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
