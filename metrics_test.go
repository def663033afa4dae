package routekit

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	r := NewRouter("orders")
	mustRegister(t, r.Message(), func(context.Context, Client, Update, Deps) error { return nil },
		WithName("create"), WithFilter(Text("new")))
	mustRegister(t, r.Message(), func(context.Context, Client, Update, Deps) error { return errors.New("boom") },
		WithName("cancel"), WithFilter(Text("cancel")))
	d := New(nil, WithMetrics(m))
	require.NoError(t, d.AddRouter(r))

	for _, text := range []string{"new", "new", "cancel", "other"} {
		_, _ = d.FeedUpdate(context.Background(), &Message{Text: text})
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.updatesTotal.WithLabelValues("message", outcomeHandled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updatesTotal.WithLabelValues("message", outcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updatesTotal.WithLabelValues("message", outcomeUnhandled)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.handlerRuns.WithLabelValues("orders", "create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.handlerRuns.WithLabelValues("orders", "cancel", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.dispatchDuration))
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.updatesTotal.WithLabelValues("poll", outcomeHandled).Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(second.updatesTotal.WithLabelValues("poll", outcomeHandled)))
}

func TestWithMetrics_Nil(t *testing.T) {
	d := New(nil, WithMetrics(nil))

	_, err := d.FeedUpdate(context.Background(), &Message{})
	assert.NoError(t, err)
}
