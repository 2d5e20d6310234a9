package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/envirofacts-cli/internal/epa"
	"github.com/sells-group/envirofacts-cli/internal/geo"
	"github.com/sells-group/envirofacts-cli/internal/model"
)

var servePort int

// serverDeps narrows what the HTTP handlers need, so tests can inject
// fakes without a live upstream.
type serverDeps struct {
	summarizer interface {
		Summarize(ctx context.Context, location string, radiusMiles float64) (*model.EnvironmentalSummary, error)
	}
	searcher interface {
		Search(ctx context.Context, filter epa.FacilitySearch) ([]*model.Facility, bool, error)
	}
	compliance interface {
		History(ctx context.Context, req epa.ComplianceRequest) (*model.ComplianceHistory, error)
	}
	health interface {
		CheckHealth(ctx context.Context) epa.Health
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve summaries over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env := initEnv()
		mux := newServeMux(serverDeps{
			summarizer: env.Aggregator,
			searcher:   env.FRS,
			compliance: env.Compliance,
			health:     env.Client,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newServeMux(deps serverDeps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		h := deps.health.CheckHealth(r.Context())
		status := http.StatusOK
		if !h.Reachable {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	})

	mux.HandleFunc("GET /v1/summary", func(w http.ResponseWriter, r *http.Request) {
		location := r.URL.Query().Get("location")
		if location == "" {
			writeError(w, http.StatusBadRequest, "location is required")
			return
		}
		radius := 0.0
		if raw := r.URL.Query().Get("radius"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "radius must be a number")
				return
			}
			radius = parsed
		}

		s, err := deps.summarizer.Summarize(r.Context(), location, radius)
		if err != nil {
			writeSummaryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	})

	mux.HandleFunc("GET /v1/facilities", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := epa.FacilitySearch{
			Name:  q.Get("name"),
			NAICS: q.Get("naics"),
			State: q.Get("state"),
			ZIP:   q.Get("zip"),
			City:  q.Get("city"),
		}

		facilities, truncated, err := deps.searcher.Search(r.Context(), filter)
		if err != nil {
			var unavailable *epa.SourceUnavailable
			if errors.As(err, &unavailable) {
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":      len(facilities),
			"truncated":  truncated,
			"facilities": facilities,
		})
	})

	mux.HandleFunc("GET /v1/compliance/{registryID}", func(w http.ResponseWriter, r *http.Request) {
		req := epa.ComplianceRequest{
			RegistryID: r.PathValue("registryID"),
			Program:    r.URL.Query().Get("program"),
		}
		if raw := r.URL.Query().Get("years"); raw != "" {
			years, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "years must be an integer")
				return
			}
			req.Years = years
		}

		history, err := deps.compliance.History(r.Context(), req)
		if err != nil {
			var unavailable *epa.SourceUnavailable
			if errors.As(err, &unavailable) {
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, history)
	})

	return mux
}

// writeSummaryError maps the aggregation error taxonomy onto HTTP codes:
// an unresolvable location is the caller's problem, a broken geocoder is
// an upstream failure.
func writeSummaryError(w http.ResponseWriter, err error) {
	var svcErr *geo.ServiceError
	switch {
	case errors.Is(err, geo.ErrNotFound):
		writeError(w, http.StatusNotFound, "location not found")
	case errors.As(err, &svcErr):
		writeError(w, http.StatusBadGateway, "geocoding service unavailable")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
