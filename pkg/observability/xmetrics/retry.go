package xmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xkyc/pkg/resilience/xretry"
)

const (
	metricRetryAttempts = "xkyc.retry.attempts"
	metricRetryOutcomes = "xkyc.retry.outcomes"
	metricRetryDelay    = "xkyc.retry.delay"

	unknownOperation = "unknown"
	noCategory       = "none"
)

// 属性 key。
const (
	AttrOperation = "operation"
	AttrOutcome   = "outcome"
	AttrCategory  = "category"
	AttrBus       = "bus"
)

// 结果取值。
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var _ xretry.Observer = (*RetryObserver)(nil)

// RetryObserver 把 xretry 事件记录为指标，实现 xretry.Observer。
type RetryObserver struct {
	settings settings
	attempts metric.Int64Counter
	outcomes metric.Int64Counter
	delay    metric.Float64Histogram
}

// NewRetryObserver 创建 RetryObserver。
func NewRetryObserver(opts ...Option) (*RetryObserver, error) {
	set := apply(opts)
	meter := set.meter()

	attempts, err := meter.Int64Counter(
		metricRetryAttempts,
		metric.WithDescription("retry attempts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}

	outcomes, err := meter.Int64Counter(
		metricRetryOutcomes,
		metric.WithDescription("retry executions by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}

	delay, err := meter.Float64Histogram(
		metricRetryDelay,
		metric.WithDescription("delay before each retry"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	return &RetryObserver{settings: set, attempts: attempts, outcomes: outcomes, delay: delay}, nil
}

// Observe 实现 xretry.Observer。
func (o *RetryObserver) Observe(ctx context.Context, e xretry.Event) {
	if o == nil {
		return
	}
	// 请求 ctx 取消后仍需记录失败指标
	ctx = context.WithoutCancel(ctx)

	operation := e.Operation
	if operation == "" {
		operation = unknownOperation
	}
	category := string(e.Category)
	if category == "" {
		category = noCategory
	}

	switch e.Kind {
	case xretry.EventAttempt:
		o.attempts.Add(ctx, 1, o.settings.measurement(attribute.String(AttrOperation, operation)))
	case xretry.EventRetry:
		o.delay.Record(ctx, e.Delay.Seconds(), o.settings.measurement(
			attribute.String(AttrOperation, operation),
			attribute.String(AttrCategory, category),
		))
	case xretry.EventSuccess:
		o.outcomes.Add(ctx, 1, o.settings.measurement(
			attribute.String(AttrOperation, operation),
			attribute.String(AttrOutcome, OutcomeSuccess),
			attribute.String(AttrCategory, noCategory),
		))
	case xretry.EventFailure:
		o.outcomes.Add(ctx, 1, o.settings.measurement(
			attribute.String(AttrOperation, operation),
			attribute.String(AttrOutcome, OutcomeFailure),
			attribute.String(AttrCategory, category),
		))
	}
}
