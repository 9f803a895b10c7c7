package xpulsar

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/google/uuid"

	"github.com/omeyang/xkyc/internal/mqcore"
	"github.com/omeyang/xkyc/pkg/mq/xpublish"
	"github.com/omeyang/xkyc/pkg/observability/xlog"
)

// producer 是 pulsar.Producer 中 Sender 用到的部分。
type producer interface {
	Send(ctx context.Context, msg *pulsar.ProducerMessage) (pulsar.MessageID, error)
	Close()
}

// producerFactory 按 topic 创建 Producer。
type producerFactory func(topic string) (producer, error)

// Sender 实现 xpublish.Sender，并发安全。
type Sender struct {
	create    producerFactory
	producers *mqcore.TopicCache[producer]
	options   *senderOptions

	// client 由 Dial 创建时非 nil，Close 负责关闭。
	client pulsar.Client
	closed atomic.Bool
}

// NewSender 使用已有的 pulsar.Client 创建 Sender。Close 只关闭 Sender 创建的 Producer。
func NewSender(client pulsar.Client, opts ...SenderOption) (*Sender, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	options := defaultSenderOptions()
	for _, opt := range opts {
		opt(options)
	}
	create := func(topic string) (producer, error) {
		return client.CreateProducer(pulsar.ProducerOptions{
			Topic:       topic,
			SendTimeout: options.sendTimeout,
		})
	}
	return newSender(create, options)
}

func newSender(create producerFactory, options *senderOptions) (*Sender, error) {
	s := &Sender{create: create, options: options}
	producers, err := mqcore.NewTopicCache(options.maxProducers, func(topic string, p producer) {
		p.Close()
		options.logger.Debug(context.Background(), "pulsar producer closed", xlog.Bus(topic))
	})
	if err != nil {
		return nil, err
	}
	s.producers = producers
	return s, nil
}

// Dial 创建 pulsar.Client 及其 Sender。Close 会关闭 Client。
func Dial(url string, opts ...SenderOption) (*Sender, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}
	options := defaultSenderOptions()
	for _, opt := range opts {
		opt(options)
	}

	clientOptions := pulsar.ClientOptions{
		URL:                     url,
		ConnectionTimeout:       options.connectionTimeout,
		OperationTimeout:        options.operationTimeout,
		MaxConnectionsPerBroker: options.maxConnectionsPerBroker,
	}
	if options.authentication != nil {
		clientOptions.Authentication = options.authentication
	}

	client, err := pulsar.NewClient(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("xpulsar: create client: %w", err)
	}

	s, err := NewSender(client, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	s.client = client
	return s, nil
}

// Send 实现 xpublish.Sender：同步发送一条消息。
func (s *Sender) Send(ctx context.Context, entry xpublish.Entry) (xpublish.Ack, error) {
	if s.closed.Load() {
		return xpublish.Ack{}, ErrClosed
	}
	topic, err := mqcore.Topic(entry, s.options.defaultTopic)
	if err != nil {
		return xpublish.Ack{}, err
	}

	lease, err := s.producers.Acquire(ctx, topic, s.create)
	if err != nil {
		return xpublish.Ack{}, mqcore.SendError(failureCode(err), fmt.Errorf("xpulsar: create producer for %q: %w", topic, err))
	}

	id := uuid.NewString()
	msgID, err := lease.Value.Send(ctx, &pulsar.ProducerMessage{
		Payload:    entry.Body,
		Properties: mqcore.Headers(entry, id),
	})
	if err != nil {
		code := failureCode(err)
		if code == mqcore.FailureProducerClosed {
			// 丢弃失效的 Producer，下一次尝试会重新创建
			lease.Discard()
			code = mqcore.FailurePutFailed
		} else {
			lease.Release()
		}
		if inBand(code) {
			return mqcore.Rejected(code, err), nil
		}
		return xpublish.Ack{}, mqcore.SendError(code, fmt.Errorf("xpulsar: send: %w", err))
	}
	lease.Release()

	if msgID != nil {
		return xpublish.Ack{MessageID: msgID.String()}, nil
	}
	return xpublish.Ack{MessageID: id}, nil
}

// Producers 返回当前缓存的 Producer 数量。
func (s *Sender) Producers() int {
	return s.producers.Len()
}

// Close 关闭所有 Producer；由 Dial 创建时同时关闭 Client。
// 重复调用返回 ErrClosed。
func (s *Sender) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	err := s.producers.Close()
	if s.client != nil {
		s.client.Close()
	}
	return err
}

// 确保实现接口
var _ xpublish.Sender = (*Sender)(nil)
