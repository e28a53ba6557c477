package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HMasataka/spotlight/pkg/speaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)

	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumByAttr(t *testing.T, rm metricdata.ResourceMetrics, name string, kv attribute.KeyValue) int64 {
	t.Helper()

	met := findMetric(rm, name)
	require.NotNil(t, met, "metric %q not found", name)

	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %q is not an int64 sum", name)

	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(kv.Key); ok && v == kv.Value {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_Recorder(t *testing.T) {
	t.Run("評価時間", func(t *testing.T) {
		m, reader := newTestMetrics(t)

		m.RecordEvaluation(50*time.Microsecond, false)
		m.RecordEvaluation(80*time.Microsecond, true)

		met := findMetric(collect(t, reader), "spotlight.evaluation.duration")
		require.NotNil(t, met)

		hist, ok := met.Data.(metricdata.Histogram[float64])
		require.True(t, ok)

		var count uint64
		for _, dp := range hist.DataPoints {
			count += dp.Count
		}
		assert.Equal(t, uint64(2), count)
		assert.Len(t, hist.DataPoints, 2)
	})

	t.Run("購読の通知", func(t *testing.T) {
		m, reader := newTestMetrics(t)

		m.RecordSubscriptionIntent(true)
		m.RecordSubscriptionIntent(true)
		m.RecordSubscriptionIntent(false)

		rm := collect(t, reader)
		assert.Equal(t, int64(2), sumByAttr(t, rm, "spotlight.subscription.intents", attribute.Bool("subscribe", true)))
		assert.Equal(t, int64(1), sumByAttr(t, rm, "spotlight.subscription.intents", attribute.Bool("subscribe", false)))
	})

	t.Run("チャネル数", func(t *testing.T) {
		m, reader := newTestMetrics(t)

		m.RecordChannels(1)
		m.RecordChannels(1)
		m.RecordChannels(-1)

		met := findMetric(collect(t, reader), "spotlight.channels")
		require.NotNil(t, met)

		sum, ok := met.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(1), sum.DataPoints[0].Value)
	})

	t.Run("表示スロット数", func(t *testing.T) {
		m, reader := newTestMetrics(t)

		m.RecordActiveSetChange(2)
		m.RecordActiveSetChange(3)

		rm := collect(t, reader)

		gauge, ok := findMetric(rm, "spotlight.capacity").Data.(metricdata.Gauge[int64])
		require.True(t, ok)
		require.Len(t, gauge.DataPoints, 1)
		assert.Equal(t, int64(3), gauge.DataPoints[0].Value)

		changes, ok := findMetric(rm, "spotlight.active_set.changes").Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Equal(t, int64(2), changes.DataPoints[0].Value)
	})

	t.Run("RPCのステータス", func(t *testing.T) {
		m, reader := newTestMetrics(t)
		ctx := context.Background()

		m.RecordRPC(ctx, "join", nil)
		m.RecordRPC(ctx, "join", errors.New("boom"))
		m.RecordRPC(ctx, "leave", nil)

		rm := collect(t, reader)
		assert.Equal(t, int64(2), sumByAttr(t, rm, "spotlight.rpc.requests", attribute.String("status", "ok")))
		assert.Equal(t, int64(1), sumByAttr(t, rm, "spotlight.rpc.requests", attribute.String("status", "error")))
	})
}

func TestMetrics_WithEngine(t *testing.T) {
	m, reader := newTestMetrics(t)

	e, err := speaker.NewEngine(speaker.DefaultConfig(), speaker.WithRecorder(m))
	require.NoError(t, err)
	defer e.Close()

	e.AddChannel("A", speaker.KindRemote, false)
	e.AddChannel("B", speaker.KindRemote, false)
	require.NoError(t, e.RemoveChannel("B"))

	rm := collect(t, reader)

	channels, ok := findMetric(rm, "spotlight.channels").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), channels.DataPoints[0].Value)

	assert.NotNil(t, findMetric(rm, "spotlight.evaluation.duration"))
	assert.NotNil(t, findMetric(rm, "spotlight.most_active.changes"))
}
