package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.Commands.WithLabelValues("INSERT").Inc()
	c.Commands.WithLabelValues("INSERT").Inc()
	c.Rejects.WithLabelValues("unknown_order").Inc()
	c.Trades.Add(3)
	c.RestingOrders.Set(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Commands.WithLabelValues("INSERT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Rejects.WithLabelValues("unknown_order")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Trades))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.RestingOrders))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.Trades.Inc()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "matchbook_trades_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Trades.Inc()
	assert.Zero(t, testutil.ToFloat64(b.Trades))
}
