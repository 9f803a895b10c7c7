package xpulsar

import (
	"time"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/omeyang/xkyc/internal/mqcore"
	"github.com/omeyang/xkyc/pkg/observability/xlog"
)

type senderOptions struct {
	defaultTopic string
	maxProducers int
	sendTimeout  time.Duration
	logger       xlog.Logger

	// 以下仅 Dial 使用
	connectionTimeout       time.Duration
	operationTimeout        time.Duration
	maxConnectionsPerBroker int
	authentication          pulsar.Authentication
}

func defaultSenderOptions() *senderOptions {
	return &senderOptions{
		maxProducers:            mqcore.DefaultTopicCacheSize,
		sendTimeout:             30 * time.Second,
		logger:                  xlog.Discard(),
		connectionTimeout:       10 * time.Second,
		operationTimeout:        30 * time.Second,
		maxConnectionsPerBroker: 1,
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

// WithMaxProducers 设置缓存的 Producer 数量上限。
func WithMaxProducers(n int) SenderOption {
	return func(o *senderOptions) {
		if n > 0 {
			o.maxProducers = n
		}
	}
}

// WithSendTimeout 设置 Producer 的 SendTimeout。
func WithSendTimeout(d time.Duration) SenderOption {
	return func(o *senderOptions) {
		if d > 0 {
			o.sendTimeout = d
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

// WithConnectionTimeout 设置连接超时，仅用于 Dial。
func WithConnectionTimeout(d time.Duration) SenderOption {
	return func(o *senderOptions) {
		if d > 0 {
			o.connectionTimeout = d
		}
	}
}

// WithOperationTimeout 设置操作超时，仅用于 Dial。
func WithOperationTimeout(d time.Duration) SenderOption {
	return func(o *senderOptions) {
		if d > 0 {
			o.operationTimeout = d
		}
	}
}

// WithAuthentication 设置认证方式，仅用于 Dial。
func WithAuthentication(auth pulsar.Authentication) SenderOption {
	return func(o *senderOptions) {
		o.authentication = auth
	}
}
