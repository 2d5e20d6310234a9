// Package geo resolves free-text locations to coordinates and provides the
// great-circle math used to filter and rank records around a point.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/time/rate"

	"github.com/sells-group/envirofacts-cli/internal/model"
	"github.com/sells-group/envirofacts-cli/internal/resilience"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	defaultUserAgent    = "envirofacts-cli/1.0"

	// Nominatim's usage policy caps anonymous clients at one request
	// per second.
	defaultMinInterval = time.Second
)

// ErrNotFound means the geocoder answered but had no match for the query.
var ErrNotFound = eris.New("geo: location not found")

// ServiceError means the geocoder itself failed (network, 5xx, bad body).
// It is distinct from ErrNotFound: the query may be fine.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("geo: geocoding service error: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Location is a successfully resolved place.
type Location struct {
	Coordinates model.Coordinates `json:"coordinates"`
	DisplayName string            `json:"display_name,omitempty"`
	StateCode   string            `json:"state_code,omitempty"`
}

// Resolver geocodes free-text locations through Nominatim with an in-memory
// cache in front of a minimum-interval rate gate. Cache hits never touch the
// limiter. Safe for concurrent use.
type Resolver struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   resilience.RetryConfig

	mu    sync.Mutex
	cache map[string]*Location

	folder cases.Caser
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient overrides the HTTP client (tests inject a fake here).
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.httpClient = c }
}

// WithBaseURL overrides the Nominatim endpoint.
func WithBaseURL(u string) ResolverOption {
	return func(r *Resolver) { r.baseURL = u }
}

// WithUserAgent sets the User-Agent sent to the geocoder.
func WithUserAgent(ua string) ResolverOption {
	return func(r *Resolver) { r.userAgent = ua }
}

// WithMinInterval sets the minimum spacing between upstream requests.
func WithMinInterval(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRetryConfig overrides the retry policy for upstream calls.
func WithRetryConfig(cfg resilience.RetryConfig) ResolverOption {
	return func(r *Resolver) { r.retryCfg = cfg }
}

// NewResolver creates a Resolver with defaults suitable for Nominatim.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		baseURL:    defaultNominatimURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(defaultMinInterval), 1),
		retryCfg:   resilience.DefaultRetryConfig(),
		cache:      make(map[string]*Location),
		folder:     cases.Fold(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve geocodes a free-text location. Identical queries (after trimming
// and case folding) hit the cache and return without any upstream traffic.
// Only successful resolutions are cached, so a transient upstream failure
// does not poison later lookups.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Location, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, eris.New("geo: empty location query")
	}

	key := r.normalize(trimmed)
	if loc := r.cached(key); loc != nil {
		zap.L().Debug("geocode cache hit", zap.String("query", trimmed))
		return loc, nil
	}

	loc, err := resilience.DoVal(ctx, r.retryCfg, func(ctx context.Context) (*Location, error) {
		return r.lookup(ctx, trimmed)
	})
	if err != nil {
		return nil, err
	}

	r.store(key, loc)
	return loc, nil
}

// CacheSize reports the number of cached resolutions.
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Resolver) normalize(q string) string {
	return r.folder.String(strings.Join(strings.Fields(q), " "))
}

func (r *Resolver) cached(key string) *Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[key]
}

func (r *Resolver) store(key string, loc *Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// First writer wins; concurrent resolutions of the same query agree.
	if _, ok := r.cache[key]; !ok {
		r.cache[key] = loc
	}
}

// nominatimPlace is one entry in a Nominatim search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		State   string `json:"state"`
		ISOCode string `json:"ISO3166-2-lvl4"`
	} `json:"address"`
}

// lookup performs one upstream request behind the rate gate.
func (r *Resolver) lookup(ctx context.Context, query string) (*Location, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geo: rate limit wait")
	}

	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
		"countrycodes":   {"us"},
	}

	reqURL := r.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geo: build request")
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("geo: geocoder returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(&ServiceError{Err: err}, resp.StatusCode)
		}
		return nil, &ServiceError{Err: err}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Err: eris.Wrap(err, "geo: read body")}
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, &ServiceError{Err: eris.Wrap(err, "geo: parse response")}
	}

	if len(places) == 0 {
		return nil, ErrNotFound
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, &ServiceError{Err: eris.Wrap(err, "geo: parse latitude")}
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, &ServiceError{Err: eris.Wrap(err, "geo: parse longitude")}
	}

	loc := &Location{
		Coordinates: model.Coordinates{Latitude: lat, Longitude: lon},
		DisplayName: place.DisplayName,
		StateCode:   stateCodeFromISO(place.Address.ISOCode),
	}
	if err := loc.Coordinates.Validate(); err != nil {
		return nil, &ServiceError{Err: err}
	}

	zap.L().Debug("geocoded location",
		zap.String("query", query),
		zap.String("resolved", loc.DisplayName),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
	)
	return loc, nil
}

// stateCodeFromISO extracts "NY" from ISO 3166-2 codes like "US-NY".
func stateCodeFromISO(iso string) string {
	if i := strings.IndexByte(iso, '-'); i >= 0 && len(iso) > i+1 {
		return iso[i+1:]
	}
	return ""
}
