package xmetrics

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrCreateCounter 创建 Counter 失败。
	ErrCreateCounter = errors.New("xmetrics: create counter failed")
	// ErrCreateHistogram 创建 Histogram 失败。
	ErrCreateHistogram = errors.New("xmetrics: create histogram failed")
)

// DefaultScope 默认的 instrumentation scope。
const DefaultScope = "github.com/omeyang/xkyc/xmetrics"

type settings struct {
	scope    string
	provider metric.MeterProvider
	common   []attribute.KeyValue
}

// Option 配置 RetryObserver 与 PublishRecorder。
type Option func(*settings)

// WithInstrumentationName 设置 instrumentation scope，默认 DefaultScope。
func WithInstrumentationName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.scope = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认 otel.GetMeterProvider()。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(s *settings) {
		if provider != nil {
			s.provider = provider
		}
	}
}

// WithAttributes 为每个测量附加固定属性，如部署环境或服务名。
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(s *settings) {
		s.common = append(s.common, attrs...)
	}
}

func apply(opts []Option) settings {
	s := settings{scope: DefaultScope, provider: otel.GetMeterProvider()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

func (s settings) meter() metric.Meter {
	return s.provider.Meter(s.scope)
}

// measurement 合并固定属性与本次测量的属性。
func (s settings) measurement(kv ...attribute.KeyValue) metric.MeasurementOption {
	if len(s.common) == 0 {
		return metric.WithAttributes(kv...)
	}
	all := make([]attribute.KeyValue, 0, len(s.common)+len(kv))
	all = append(all, s.common...)
	all = append(all, kv...)
	return metric.WithAttributes(all...)
}
