package xmetrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricPublishResults  = "xkyc.publish.results"
	metricPublishDuration = "xkyc.publish.duration"
)

// PublishRecorder 记录单条发布结果。
type PublishRecorder struct {
	settings settings
	results  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewPublishRecorder 创建 PublishRecorder。
func NewPublishRecorder(opts ...Option) (*PublishRecorder, error) {
	set := apply(opts)
	meter := set.meter()

	results, err := meter.Int64Counter(
		metricPublishResults,
		metric.WithDescription("published entries by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}

	duration, err := meter.Float64Histogram(
		metricPublishDuration,
		metric.WithDescription("publish duration per successful entry"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	return &PublishRecorder{settings: set, results: results, duration: duration}, nil
}

// Record 记录一条发布结果。失败的结果不带耗时，只计数，不进入耗时直方图。
func (r *PublishRecorder) Record(ctx context.Context, bus string, success bool, d time.Duration) {
	if r == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	attrs := r.settings.measurement(
		attribute.String(AttrBus, bus),
		attribute.String(AttrOutcome, outcome),
	)
	r.results.Add(ctx, 1, attrs)
	if success {
		r.duration.Record(ctx, d.Seconds(), attrs)
	}
}
