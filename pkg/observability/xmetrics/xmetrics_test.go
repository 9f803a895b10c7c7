package xmetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
	"github.com/omeyang/xkyc/pkg/resilience/xretry"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumWhere(t *testing.T, m metricdata.Metrics, kvs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for _, kv := range kvs {
			v, ok := dp.Attributes.Value(kv.Key)
			if !ok || v != kv.Value {
				match = false
				break
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func histCount(t *testing.T, m metricdata.Metrics) (uint64, float64) {
	t.Helper()
	h, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "metric %s is not a float64 histogram", m.Name)
	var count uint64
	var sum float64
	for _, dp := range h.DataPoints {
		count += dp.Count
		sum += dp.Sum
	}
	return count, sum
}

type instantTimer struct{}

func (instantTimer) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestRetryObserver_WithRetryer(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	obs, err := NewRetryObserver(WithMeterProvider(mp))
	require.NoError(t, err)

	r := xretry.NewRetryer(xretry.WithObserver(obs), xretry.WithTimer(instantTimer{}))
	cfg := xretry.Config{MaxRetries: 2, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: xretry.JitterNone}
	ctx := context.Background()

	// 成功：失败一次后成功
	var calls int
	_, err = xretry.Execute(ctx, r, "blob.put", cfg, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("connection reset")
		}
		return 1, nil
	})
	require.NoError(t, err)

	// 失败：不可重试
	_, err = xretry.Execute(ctx, r, "blob.put", cfg, func(context.Context) (int, error) {
		return 0, xfault.NewError(xfault.Failure{Name: "AccessDenied"})
	})
	require.Error(t, err)

	metrics := collect(t, reader)

	attempts := metrics[metricRetryAttempts]
	assert.Equal(t, int64(3), sumWhere(t, attempts, attribute.String(AttrOperation, "blob.put")))

	outcomes := metrics[metricRetryOutcomes]
	assert.Equal(t, int64(1), sumWhere(t, outcomes, attribute.String(AttrOutcome, OutcomeSuccess)))
	assert.Equal(t, int64(1), sumWhere(t, outcomes,
		attribute.String(AttrOutcome, OutcomeFailure),
		attribute.String(AttrCategory, string(xfault.CategoryAuthorization)),
	))

	count, sum := histCount(t, metrics[metricRetryDelay])
	assert.Equal(t, uint64(1), count)
	assert.InDelta(t, 0.1, sum, 1e-9)
}

func TestRetryObserver_UnknownOperation(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	obs, err := NewRetryObserver(WithMeterProvider(mp), WithInstrumentationName("test"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	obs.Observe(ctx, xretry.Event{Kind: xretry.EventAttempt})

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumWhere(t, metrics[metricRetryAttempts], attribute.String(AttrOperation, unknownOperation)))
}

func TestRetryObserver_Nil(t *testing.T) {
	var obs *RetryObserver
	assert.NotPanics(t, func() {
		obs.Observe(context.Background(), xretry.Event{Kind: xretry.EventSuccess})
	})
}

func TestPublishRecorder(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	rec, err := NewPublishRecorder(WithMeterProvider(mp))
	require.NoError(t, err)

	ctx := context.Background()
	rec.Record(ctx, "kyc-events", true, 20*time.Millisecond)
	rec.Record(ctx, "kyc-events", true, 30*time.Millisecond)
	rec.Record(ctx, "kyc-events", false, 0)

	metrics := collect(t, reader)
	results := metrics[metricPublishResults]
	assert.Equal(t, int64(2), sumWhere(t, results, attribute.String(AttrBus, "kyc-events"), attribute.String(AttrOutcome, OutcomeSuccess)))
	assert.Equal(t, int64(1), sumWhere(t, results, attribute.String(AttrOutcome, OutcomeFailure)))

	count, sum := histCount(t, metrics[metricPublishDuration])
	assert.Equal(t, uint64(2), count, "failures are counted but not timed")
	assert.InDelta(t, 0.05, sum, 1e-9)

	var nilRec *PublishRecorder
	assert.NotPanics(t, func() { nilRec.Record(ctx, "x", true, 0) })
}

func TestNewRetryObserver_GlobalProvider(t *testing.T) {
	obs, err := NewRetryObserver()
	require.NoError(t, err)
	assert.NotNil(t, obs)
}

func TestWithAttributes(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	env := attribute.String("env", "staging")
	rec, err := NewPublishRecorder(WithMeterProvider(mp), WithAttributes(env))
	require.NoError(t, err)
	obs, err := NewRetryObserver(WithMeterProvider(mp), WithAttributes(env))
	require.NoError(t, err)

	ctx := context.Background()
	rec.Record(ctx, "kyc-events", true, time.Millisecond)
	obs.Observe(ctx, xretry.Event{Kind: xretry.EventAttempt, Operation: "eventbus.publish"})

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumWhere(t, metrics[metricPublishResults], env, attribute.String(AttrBus, "kyc-events")))
	assert.Equal(t, int64(1), sumWhere(t, metrics[metricRetryAttempts], env, attribute.String(AttrOperation, "eventbus.publish")))
}
