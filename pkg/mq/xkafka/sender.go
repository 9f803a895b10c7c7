package xkafka

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/omeyang/xkyc/internal/mqcore"
	"github.com/omeyang/xkyc/pkg/mq/xpublish"
	"github.com/omeyang/xkyc/pkg/observability/xlog"
)

// producer 是 *kafka.Producer 中 Sender 用到的部分。
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// Stats 包含 Sender 的统计信息。
type Stats struct {
	// Produced 成功入队的消息数。
	Produced int64
	// Delivered 收到成功 delivery report 的消息数。
	Delivered int64
	// Rejected 收到失败 delivery report 的消息数。
	Rejected int64
	// Errors Produce 同步失败的次数。
	Errors int64
}

// Sender 实现 xpublish.Sender，并发安全。
type Sender struct {
	producer producer
	options  *senderOptions

	// owned 由 Dial 创建时非 nil，Close 负责关闭。
	owned   *kafka.Producer
	drained chan struct{}

	closed    atomic.Bool
	produced  atomic.Int64
	delivered atomic.Int64
	rejected  atomic.Int64
	errors    atomic.Int64
}

// NewSender 使用已有的 Producer 创建 Sender。Close 不会关闭 p。
// p 的 Events 通道需要由调用方消费。
func NewSender(p *kafka.Producer, opts ...SenderOption) (*Sender, error) {
	if p == nil {
		return nil, ErrNilClient
	}
	return newSender(p, opts...), nil
}

func newSender(p producer, opts ...SenderOption) *Sender {
	options := defaultSenderOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Sender{producer: p, options: options}
}

// Dial 创建 Producer 及其 Sender。config 必须包含 "bootstrap.servers"。
func Dial(config *kafka.ConfigMap, opts ...SenderOption) (*Sender, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	// 复制配置，避免修改调用方传入的 ConfigMap
	cloned := &kafka.ConfigMap{}
	for k, v := range *config {
		if err := cloned.SetKey(k, v); err != nil {
			return nil, fmt.Errorf("xkafka: clone config key %q: %w", k, err)
		}
	}

	p, err := kafka.NewProducer(cloned)
	if err != nil {
		return nil, fmt.Errorf("xkafka: create producer: %w", err)
	}

	s := newSender(p, opts...)
	s.owned = p
	s.drained = make(chan struct{})
	go s.drain(p.Events())
	return s, nil
}

// drain 消费 Producer 的全局事件，直到 Producer 关闭。
func (s *Sender) drain(events chan kafka.Event) {
	defer close(s.drained)
	for ev := range events {
		if e, ok := ev.(kafka.Error); ok {
			s.options.logger.Warn(context.Background(), "kafka producer error",
				xlog.Component("xkafka"),
				xlog.Err(e),
			)
		}
	}
}

// Send 实现 xpublish.Sender：写入一条消息并等待 delivery report。
func (s *Sender) Send(ctx context.Context, entry xpublish.Entry) (xpublish.Ack, error) {
	if s.closed.Load() {
		return xpublish.Ack{}, ErrClosed
	}
	topic, err := mqcore.Topic(entry, s.options.defaultTopic)
	if err != nil {
		return xpublish.Ack{}, err
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          entry.Body,
		Headers:        kafkaHeaders(mqcore.Headers(entry, "")),
	}

	delivery := make(chan kafka.Event, 1)
	if err := s.producer.Produce(msg, delivery); err != nil {
		s.errors.Add(1)
		return xpublish.Ack{}, mqcore.SendError(failureCode(err), fmt.Errorf("xkafka: produce: %w", err))
	}
	s.produced.Add(1)

	select {
	case ev := <-delivery:
		return s.deliveryAck(ev)
	case <-ctx.Done():
		return xpublish.Ack{}, context.Cause(ctx)
	}
}

func (s *Sender) deliveryAck(ev kafka.Event) (xpublish.Ack, error) {
	m, ok := ev.(*kafka.Message)
	if !ok {
		return xpublish.Ack{}, fmt.Errorf("%w: %T", ErrUnexpectedEvent, ev)
	}

	tp := m.TopicPartition
	if tp.Error != nil {
		s.rejected.Add(1)
		if code := failureCode(tp.Error); code != "" {
			return mqcore.Rejected(code, tp.Error), nil
		}
		return xpublish.Ack{}, fmt.Errorf("xkafka: delivery failed: %w", tp.Error)
	}

	s.delivered.Add(1)
	topic := ""
	if tp.Topic != nil {
		topic = *tp.Topic
	}
	return xpublish.Ack{MessageID: fmt.Sprintf("%s[%d]@%d", topic, tp.Partition, int64(tp.Offset))}, nil
}

// Stats 返回统计信息。
func (s *Sender) Stats() Stats {
	return Stats{
		Produced:  s.produced.Load(),
		Delivered: s.delivered.Load(),
		Rejected:  s.rejected.Load(),
		Errors:    s.errors.Load(),
	}
}

// Close 关闭 Sender。由 Dial 创建时会 Flush 并关闭 Producer。
// 重复调用返回 ErrClosed。
func (s *Sender) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if s.owned == nil {
		return nil
	}

	remaining := s.owned.Flush(int(s.options.flushTimeout.Milliseconds()))
	s.owned.Close()
	<-s.drained
	if remaining > 0 {
		return fmt.Errorf("%w: %d messages still in queue", ErrFlushTimeout, remaining)
	}
	return nil
}

// kafkaHeaders 按 key 排序转换，保证消息头顺序稳定。
func kafkaHeaders(h map[string]string) []kafka.Header {
	if len(h) == 0 {
		return nil
	}
	headers := make([]kafka.Header, 0, len(h))
	for _, k := range slices.Sorted(maps.Keys(h)) {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(h[k])})
	}
	return headers
}

// 确保实现接口
var _ xpublish.Sender = (*Sender)(nil)
