package xpubsub

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocloud.dev/gcerrors"
	"gocloud.dev/pubsub"

	"github.com/omeyang/xkyc/internal/mqcore"
	"github.com/omeyang/xkyc/pkg/mq/xpublish"
	"github.com/omeyang/xkyc/pkg/observability/xlog"
)

// Opener 按名称打开 Topic。
type Opener func(ctx context.Context, name string) (*pubsub.Topic, error)

// URLOpener 返回把 prefix+name 交给 pubsub.OpenTopic 的 Opener。
func URLOpener(prefix string) Opener {
	return func(ctx context.Context, name string) (*pubsub.Topic, error) {
		return pubsub.OpenTopic(ctx, prefix+name)
	}
}

type senderOptions struct {
	defaultTopic    string
	maxTopics       int
	shutdownTimeout time.Duration
	logger          xlog.Logger
}

// SenderOption 定义 Sender 的配置选项。
type SenderOption func(*senderOptions)

// WithDefaultTopic 设置 Entry.Bus 为空时使用的 topic。
func WithDefaultTopic(name string) SenderOption {
	return func(o *senderOptions) {
		o.defaultTopic = name
	}
}

// WithMaxTopics 设置缓存的 Topic 数量上限。
func WithMaxTopics(n int) SenderOption {
	return func(o *senderOptions) {
		if n > 0 {
			o.maxTopics = n
		}
	}
}

// WithShutdownTimeout 设置关闭单个 Topic 的超时。
func WithShutdownTimeout(d time.Duration) SenderOption {
	return func(o *senderOptions) {
		if d > 0 {
			o.shutdownTimeout = d
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

// Sender 实现 xpublish.Sender，并发安全。
type Sender struct {
	open    Opener
	topics  *mqcore.TopicCache[*pubsub.Topic]
	options *senderOptions
	closed  atomic.Bool
}

// NewSender 创建 Sender。open 为 nil 时使用 URLOpener("")，即 Bus 本身就是 URL。
func NewSender(open Opener, opts ...SenderOption) (*Sender, error) {
	if open == nil {
		open = URLOpener("")
	}
	options := &senderOptions{
		maxTopics:       mqcore.DefaultTopicCacheSize,
		shutdownTimeout: 10 * time.Second,
		logger:          xlog.Discard(),
	}
	for _, opt := range opts {
		opt(options)
	}

	topics, err := mqcore.NewTopicCache(options.maxTopics, func(name string, t *pubsub.Topic) {
		ctx, cancel := context.WithTimeout(context.Background(), options.shutdownTimeout)
		defer cancel()
		if err := t.Shutdown(ctx); err != nil {
			options.logger.Warn(ctx, "pubsub topic shutdown failed", xlog.Bus(name), xlog.Err(err))
		}
	})
	if err != nil {
		return nil, err
	}
	return &Sender{open: open, topics: topics, options: options}, nil
}

// Send 实现 xpublish.Sender。MessageID 为发送前生成的 UUID，同时写入 kyc-message-id 元数据。
func (s *Sender) Send(ctx context.Context, entry xpublish.Entry) (xpublish.Ack, error) {
	if s.closed.Load() {
		return xpublish.Ack{}, ErrClosed
	}
	name, err := mqcore.Topic(entry, s.options.defaultTopic)
	if err != nil {
		return xpublish.Ack{}, err
	}

	lease, err := s.topics.Acquire(ctx, name, func(name string) (*pubsub.Topic, error) {
		return s.open(ctx, name)
	})
	if err != nil {
		return xpublish.Ack{}, mqcore.SendError(failureCode(err), fmt.Errorf("xpubsub: open topic %q: %w", name, err))
	}

	id := uuid.NewString()
	err = lease.Value.Send(ctx, &pubsub.Message{
		Body:     entry.Body,
		Metadata: mqcore.Headers(entry, id),
	})
	if err != nil {
		code := failureCode(err)
		switch code {
		case mqcore.FailureProducerClosed:
			// Topic 已关闭，丢弃后下一次尝试会重新打开
			lease.Discard()
			return xpublish.Ack{}, mqcore.SendError(mqcore.FailurePutFailed, fmt.Errorf("xpubsub: send: %w", err))
		case mqcore.FailureTopicNotFound, mqcore.FailureInvalidArgument, mqcore.FailureAccessDenied:
			lease.Release()
			return mqcore.Rejected(code, err), nil
		}
		lease.Release()
		return xpublish.Ack{}, mqcore.SendError(code, fmt.Errorf("xpubsub: send: %w", err))
	}
	lease.Release()
	return xpublish.Ack{MessageID: id}, nil
}

// Topics 返回当前缓存的 Topic 数量。
func (s *Sender) Topics() int {
	return s.topics.Len()
}

// Close 关闭所有 Topic。重复调用返回 ErrClosed。
func (s *Sender) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.topics.Close()
}

// failureCode 把 gcerrors 错误码映射为事件总线错误名。
func failureCode(err error) string {
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return mqcore.FailureTopicNotFound
	case gcerrors.InvalidArgument:
		return mqcore.FailureInvalidArgument
	case gcerrors.PermissionDenied:
		return mqcore.FailureAccessDenied
	case gcerrors.ResourceExhausted:
		return mqcore.FailureQueueFull
	case gcerrors.DeadlineExceeded:
		return mqcore.FailureTimeout
	case gcerrors.FailedPrecondition:
		return mqcore.FailureProducerClosed
	case gcerrors.Internal:
		return mqcore.FailurePutFailed
	default:
		return ""
	}
}

// 确保实现接口
var _ xpublish.Sender = (*Sender)(nil)
