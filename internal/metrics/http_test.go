package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHTTP_Observe(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	h := NewHTTP(reg)

	h.Observe("GET", "/api/v1/orders/:id", 200, 15*time.Millisecond)
	h.Observe("GET", "/api/v1/orders/:id", 404, time.Millisecond)
	h.Observe("GET", "/api/v1/orders/:id", 200, time.Millisecond)

	require.InDelta(t, 2, testutil.ToFloat64(h.requests.WithLabelValues("GET", "/api/v1/orders/:id", "200")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(h.requests.WithLabelValues("GET", "/api/v1/orders/:id", "404")), 0)
	require.Equal(t, 1, testutil.CollectAndCount(h.duration))
}

func TestHTTP_NilIsNoop(t *testing.T) {
	t.Parallel()

	var h *HTTP
	require.NotPanics(t, func() { h.Observe("GET", "/health", 200, time.Millisecond) })
}
