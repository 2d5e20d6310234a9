package epa

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/envirofacts-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := []ClientOption{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRetryConfig(fastRetry()),
	}
	return NewClient(append(base, opts...)...)
}

func TestQueryTable_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/frs.frs_facility_site/state_code/equals/NY/0:999/JSON", req.URL.Path)
		w.Write([]byte(`[{"registry_id": "110012345678", "primary_name": "ACME"}]`)) //nolint:errcheck
	}, WithMaxResults(1000))

	q := Query{Table: frsTable}.Where("state_code", OpEquals, "NY")
	records, truncated, err := c.QueryTable(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, records, 1)
	assert.Equal(t, "ACME", records[0].Str("primary_name"))
}

func TestQueryTable_TruncationFlag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `[{"registry_id":"1"},{"registry_id":"2"},{"registry_id":"3"}]`)
	}, WithMaxResults(3))

	_, truncated, err := c.QueryTable(context.Background(), Query{Table: frsTable})
	require.NoError(t, err)
	assert.True(t, truncated, "full result window should report truncation")
}

func TestQueryTable_TransientRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`)) //nolint:errcheck
	})

	records, _, err := c.QueryTable(context.Background(), Query{Table: frsTable})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueryTable_PermanentNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, _, err := c.QueryTable(context.Background(), Query{Table: "frs.no_such_table"})
	require.Error(t, err)
	assert.True(t, resilience.IsPermanent(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestQueryTable_MalformedBodyPermanent(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		// An HTML error page where a JSON array should be.
		w.Write([]byte(`<html>Oracle error</html>`)) //nolint:errcheck
	})

	_, _, err := c.QueryTable(context.Background(), Query{Table: frsTable})
	require.Error(t, err)
	assert.True(t, resilience.IsPermanent(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueryTable_RateLimitedThenSuccess(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[{"registry_id":"1"}]`)) //nolint:errcheck
	})

	records, _, err := c.QueryTable(context.Background(), Query{Table: frsTable})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueryTable_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithBreakerConfig(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	}))

	// First query burns through retries and trips the breaker.
	_, _, err := c.QueryTable(context.Background(), Query{Table: frsTable})
	require.Error(t, err)

	// Second query is rejected without touching the network.
	_, _, err = c.QueryTable(context.Background(), Query{Table: frsTable})
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestCheckHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/frs.frs_facility_site/0:0/JSON", req.URL.Path)
		w.Write([]byte(`[{"registry_id":"1"}]`)) //nolint:errcheck
	})

	h := c.CheckHealth(context.Background())
	assert.True(t, h.Reachable)
	assert.Empty(t, h.Error)
	assert.False(t, h.CheckedAt.IsZero())
}

func TestCheckHealth_Unreachable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	h := c.CheckHealth(context.Background())
	assert.False(t, h.Reachable)
	assert.NotEmpty(t, h.Error)
}
