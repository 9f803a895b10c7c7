package xconf

import (
	"fmt"
	"strings"

	"github.com/omeyang/xkyc/pkg/mq/xpublish"
	"github.com/omeyang/xkyc/pkg/observability/xlog"
)

// BusKind 事件总线类型。
type BusKind string

// 支持的事件总线。
const (
	BusKafka  BusKind = "kafka"
	BusPulsar BusKind = "pulsar"
	// BusMem 进程内总线，用于本地调试。
	BusMem BusKind = "mem"
)

// Bus 事件总线连接配置。
type Bus struct {
	Kind BusKind `koanf:"kind" json:"kind"`
	// Brokers Kafka bootstrap.servers，逗号分隔。
	Brokers string `koanf:"brokers" json:"brokers"`
	// URL Pulsar 服务地址或 gocloud pubsub URL 前缀。
	URL string `koanf:"url" json:"url"`
	// Topic 条目未指定 Bus 时使用的默认 topic。
	Topic string `koanf:"topic" json:"topic"`
}

// App 服务配置。
type App struct {
	Bus     Bus             `koanf:"bus" json:"bus"`
	Publish xpublish.Config `koanf:"publish" json:"publish"`
	Log     xlog.Config     `koanf:"log" json:"log"`
}

// DefaultApp 返回默认配置：进程内总线、xpublish.DefaultConfig、info 级别文本日志。
func DefaultApp() App {
	return App{
		Bus:     Bus{Kind: BusMem, Topic: "kyc-events"},
		Publish: xpublish.DefaultConfig(),
		Log:     xlog.Config{Level: xlog.LevelInfo, Format: "text"},
	}
}

// LoadApp 在 DefaultApp 之上解码整个配置并校验。
func LoadApp(c *Config) (App, error) {
	app := DefaultApp()
	if err := c.Unmarshal("", &app); err != nil {
		return App{}, err
	}
	app.Bus.Kind = BusKind(strings.ToLower(strings.TrimSpace(string(app.Bus.Kind))))
	if err := app.Validate(); err != nil {
		return App{}, err
	}
	return app, nil
}

// LoadAppFile 是 New 加 LoadApp 的简写。
func LoadAppFile(path string) (App, error) {
	c, err := New(path)
	if err != nil {
		return App{}, err
	}
	return LoadApp(c)
}

// Validate 校验总线类型、重试配置和并发度。
func (a App) Validate() error {
	switch a.Bus.Kind {
	case BusKafka:
		if a.Bus.Brokers == "" {
			return fmt.Errorf("%w: bus.brokers is required for kafka", ErrInvalidConfig)
		}
	case BusPulsar:
		if a.Bus.URL == "" {
			return fmt.Errorf("%w: bus.url is required for pulsar", ErrInvalidConfig)
		}
	case BusMem:
	default:
		return fmt.Errorf("%w: unknown bus kind %q", ErrInvalidConfig, a.Bus.Kind)
	}
	if err := a.Publish.Retry.Validate(); err != nil {
		return fmt.Errorf("%w: publish.retry: %w", ErrInvalidConfig, err)
	}
	if a.Publish.Concurrency < 0 {
		return fmt.Errorf("%w: publish.concurrency must not be negative", ErrInvalidConfig)
	}
	return nil
}
