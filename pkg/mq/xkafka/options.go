package xkafka

import (
	"time"

	"github.com/omeyang/xkyc/pkg/observability/xlog"
)

// DefaultFlushTimeout 默认关闭时的刷新超时。
const DefaultFlushTimeout = 10 * time.Second

type senderOptions struct {
	defaultTopic string
	flushTimeout time.Duration
	logger       xlog.Logger
}

func defaultSenderOptions() *senderOptions {
	return &senderOptions{
		flushTimeout: DefaultFlushTimeout,
		logger:       xlog.Discard(),
	}
}

// SenderOption 定义 Sender 的配置选项。
type SenderOption func(*senderOptions)

// WithDefaultTopic 设置 Entry.Bus 为空时使用的 topic。
func WithDefaultTopic(topic string) SenderOption {
	return func(o *senderOptions) {
		o.defaultTopic = topic
	}
}

// WithFlushTimeout 设置 Close 时的刷新超时。
func WithFlushTimeout(d time.Duration) SenderOption {
	return func(o *senderOptions) {
		if d > 0 {
			o.flushTimeout = d
		}
	}
}

// WithLogger 设置日志。
func WithLogger(l xlog.Logger) SenderOption {
	return func(o *senderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
