package traveltime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeoBile/monad"
	"github.com/GeoBile/monad/internal/metrics"
)

func loadDiamond(t *testing.T) *monad.RoadNetwork {
	t.Helper()
	network, err := monad.NewParser("../../testdata/diamond.osm").BuildNetwork()
	require.NoError(t, err)
	return network
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New(loadDiamond(t), Options{Strategy: "dijkstra"})
	assert.Error(t, err)
	_, err = New(nil, Options{})
	assert.Error(t, err)
}

func TestTravelTimeStrategiesAgree(t *testing.T) {
	network := loadDiamond(t)
	bestFirst, err := New(network, Options{})
	require.NoError(t, err)
	assert.Equal(t, STRATEGY_BESTFIRST, bestFirst.Strategy())
	contraction, err := New(network, Options{Strategy: STRATEGY_CONTRACTION})
	require.NoError(t, err)
	assert.Equal(t, STRATEGY_CONTRACTION, contraction.Strategy())

	ctx := context.Background()
	expected, err := monad.TravelTime(network.Graph, 1, 4)
	require.NoError(t, err)

	got, err := bestFirst.TravelTime(ctx, 1, 4)
	require.NoError(t, err)
	assert.InDelta(t, expected, got, 1e-9)

	got, err = contraction.TravelTime(ctx, 1, 4)
	require.NoError(t, err)
	assert.InDelta(t, expected, got, 1e-6, "Diamond shortest path is also the best-first one")

	for _, svc := range []*Service{bestFirst, contraction} {
		got, err = svc.TravelTime(ctx, 1, 7)
		require.NoError(t, err)
		assert.Equal(t, monad.UnreachableCost, got, "Strategy %s", svc.Strategy())

		_, err = svc.TravelTime(ctx, 1, 999)
		assert.True(t, errors.Is(err, monad.ErrUnknownNode), "Strategy %s", svc.Strategy())
	}
}

func TestTravelTimeCache(t *testing.T) {
	svc, err := New(loadDiamond(t), Options{CacheSize: 16, CacheTTL: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()
	hitsBefore := testutil.ToFloat64(metrics.CacheHits.WithLabelValues("travel_time"))
	missesBefore := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues("travel_time"))

	first, err := svc.TravelTime(ctx, 1, 4)
	require.NoError(t, err)
	second, err := svc.TravelTime(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHits.WithLabelValues("travel_time"))-hitsBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMisses.WithLabelValues("travel_time"))-missesBefore)

	_, err = svc.TravelTime(ctx, 1, 999)
	require.Error(t, err)
	_, err = svc.cache.Get(cacheKey{source: 1, target: 999})
	assert.Error(t, err, "Errors should not be cached")
}

func expandedSamples(t *testing.T) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, metrics.SearchExpandedNodes.Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestTravelTimeExpandedNodes(t *testing.T) {
	network := loadDiamond(t)
	bestFirst, err := New(network, Options{CacheSize: 16})
	require.NoError(t, err)
	ctx := context.Background()

	before := expandedSamples(t)
	_, err = bestFirst.TravelTime(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, before+1, expandedSamples(t), "Best-first search should record expanded nodes")

	_, err = bestFirst.TravelTime(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, before+1, expandedSamples(t), "Cached answer runs no search")

	contraction, err := New(network, Options{Strategy: STRATEGY_CONTRACTION})
	require.NoError(t, err)
	_, err = contraction.TravelTime(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, before+1, expandedSamples(t), "Contraction queries do not expand best-first frontier")
}

func TestTravelTimeCanceled(t *testing.T) {
	svc, err := New(loadDiamond(t), Options{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.TravelTime(ctx, 1, 4)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = svc.Path(ctx, 1, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTravelTimeAborted(t *testing.T) {
	svc, err := New(loadDiamond(t), Options{SearchOptions: []monad.SearchOption{monad.WithMaxExpansions(1)}})
	require.NoError(t, err)
	_, err = svc.TravelTime(context.Background(), 1, 4)
	var abortErr *monad.SearchAbortedError
	assert.True(t, errors.As(err, &abortErr))
}

func TestStopTravelTime(t *testing.T) {
	svc, err := New(loadDiamond(t), Options{CacheSize: 16})
	require.NoError(t, err)
	ctx := context.Background()

	got, err := svc.StopTravelTime(ctx, "Central", "Central")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = svc.StopTravelTime(ctx, "Central", "")
	require.NoError(t, err)
	assert.Equal(t, monad.UnreachableCost, got)

	_, err = svc.StopTravelTime(ctx, "Nowhere", "Central")
	assert.True(t, errors.Is(err, monad.ErrUnknownStop))
}

func TestPath(t *testing.T) {
	network := loadDiamond(t)
	for _, strategy := range []string{STRATEGY_BESTFIRST, STRATEGY_CONTRACTION} {
		svc, err := New(network, Options{Strategy: strategy})
		require.NoError(t, err)

		route, err := svc.Path(context.Background(), 1, 4)
		require.NoError(t, err)
		assert.True(t, route.Found, "Strategy %s", strategy)
		assert.Equal(t, []osm.NodeID{1, 2, 4}, route.Path, "Strategy %s", strategy)

		route, err = svc.Path(context.Background(), 1, 7)
		require.NoError(t, err)
		assert.False(t, route.Found, "Strategy %s", strategy)
		assert.Nil(t, route.Path, "Strategy %s", strategy)
		assert.Equal(t, monad.UnreachableCost, route.TravelTime(), "Strategy %s", strategy)
	}
}

func TestConcurrentQueries(t *testing.T) {
	network := loadDiamond(t)
	for _, strategy := range []string{STRATEGY_BESTFIRST, STRATEGY_CONTRACTION} {
		svc, err := New(network, Options{Strategy: strategy, CacheSize: 4})
		require.NoError(t, err)
		expected, err := svc.TravelTime(context.Background(), 5, 3)
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]float64, 32)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = svc.TravelTime(context.Background(), 5, 3)
			}(i)
		}
		wg.Wait()
		for _, got := range results {
			assert.InDelta(t, expected, got, 1e-9, "Strategy %s", strategy)
		}
	}
}
