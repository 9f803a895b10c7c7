package xpulsar

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xkyc/internal/mqcore"
	"github.com/omeyang/xkyc/pkg/mq/xpublish"
	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

// fakeProducer 记录发送的消息。
type fakeProducer struct {
	topic string

	mu     sync.Mutex
	msgs   []*pulsar.ProducerMessage
	closed bool
	delay  time.Duration
	send   func(msg *pulsar.ProducerMessage) (pulsar.MessageID, error)
}

// Send 与真实 Producer 一样，发送过程中被关闭时返回 ErrProducerClosed。
func (p *fakeProducer) Send(_ context.Context, msg *pulsar.ProducerMessage) (pulsar.MessageID, error) {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	n := len(p.msgs)
	send := p.send
	p.mu.Unlock()
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.isClosed() {
		return nil, pulsar.ErrProducerClosed
	}
	if send != nil {
		return send(msg)
	}
	return pulsar.NewMessageID(1, int64(n), 0, 0), nil
}

func (p *fakeProducer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakeProducer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// fakeFactory 按 topic 创建 fakeProducer 并记录。
type fakeFactory struct {
	mu        sync.Mutex
	producers []*fakeProducer
	err       error
	delay     time.Duration
	send      func(msg *pulsar.ProducerMessage) (pulsar.MessageID, error)
}

func (f *fakeFactory) create(topic string) (producer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := &fakeProducer{topic: topic, delay: f.delay, send: f.send}
	f.producers = append(f.producers, p)
	return p, nil
}

func (f *fakeFactory) created() []*fakeProducer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeProducer(nil), f.producers...)
}

func newTestSender(t *testing.T, f *fakeFactory, opts ...SenderOption) *Sender {
	t.Helper()
	options := defaultSenderOptions()
	for _, opt := range opts {
		opt(options)
	}
	s, err := newSender(f.create, options)
	require.NoError(t, err)
	return s
}

func TestNewSender_Nil(t *testing.T) {
	s, err := NewSender(nil)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNilClient)

	_, err = Dial("")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestSender_Send(t *testing.T) {
	f := &fakeFactory{}
	s := newTestSender(t, f)

	ack, err := s.Send(context.Background(), xpublish.Entry{
		Source:     "kyc.identity",
		DetailType: "Verified",
		Body:       []byte(`{"id":"u-1"}`),
		Bus:        "persistent://kyc/events/identity",
	})
	require.NoError(t, err)
	assert.False(t, ack.Failed())
	assert.Equal(t, pulsar.NewMessageID(1, 1, 0, 0).String(), ack.MessageID)

	ps := f.created()
	require.Len(t, ps, 1)
	assert.Equal(t, "persistent://kyc/events/identity", ps[0].topic)

	msg := ps[0].msgs[0]
	assert.Equal(t, []byte(`{"id":"u-1"}`), msg.Payload)
	assert.Equal(t, "kyc.identity", msg.Properties[mqcore.HeaderSource])
	assert.Equal(t, "Verified", msg.Properties[mqcore.HeaderDetailType])
	_, err = uuid.Parse(msg.Properties[mqcore.HeaderMessageID])
	assert.NoError(t, err)
}

func TestSender_NilMessageIDUsesGeneratedID(t *testing.T) {
	f := &fakeFactory{send: func(*pulsar.ProducerMessage) (pulsar.MessageID, error) {
		return nil, nil
	}}
	s := newTestSender(t, f)

	ack, err := s.Send(context.Background(), xpublish.Entry{Bus: "kyc"})
	require.NoError(t, err)
	assert.Equal(t, f.created()[0].msgs[0].Properties[mqcore.HeaderMessageID], ack.MessageID)
}

func TestSender_ReusesProducerPerTopic(t *testing.T) {
	f := &fakeFactory{}
	s := newTestSender(t, f, WithDefaultTopic("default"))

	for _, bus := range []string{"a", "b", "a", "", "b", ""} {
		_, err := s.Send(context.Background(), xpublish.Entry{Bus: bus})
		require.NoError(t, err)
	}

	topics := map[string]int{}
	for _, p := range f.created() {
		topics[p.topic]++
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "default": 1}, topics)
	assert.Equal(t, 3, s.Producers())
}

func TestSender_EvictsProducers(t *testing.T) {
	f := &fakeFactory{}
	s := newTestSender(t, f, WithMaxProducers(2))

	for i := range 3 {
		_, err := s.Send(context.Background(), xpublish.Entry{Bus: fmt.Sprintf("t%d", i)})
		require.NoError(t, err)
	}

	ps := f.created()
	require.Len(t, ps, 3)
	assert.True(t, ps[0].isClosed())
	assert.False(t, ps[1].isClosed())
	assert.False(t, ps[2].isClosed())
	assert.Equal(t, 2, s.Producers())
}

func TestSender_InBandFailures(t *testing.T) {
	f := &fakeFactory{send: func(*pulsar.ProducerMessage) (pulsar.MessageID, error) {
		return nil, pulsar.ErrMessageTooLarge
	}}
	s := newTestSender(t, f)

	ack, err := s.Send(context.Background(), xpublish.Entry{Bus: "kyc"})
	require.NoError(t, err)
	assert.True(t, ack.Failed())
	assert.Equal(t, mqcore.FailureMessageTooLarge, ack.FailureCode)
}

func TestSender_TransportFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  xfault.Category
		retryable bool
	}{
		{"queue full", pulsar.ErrSendQueueIsFull, xfault.CategoryRateLimit, true},
		{"timeout", pulsar.ErrSendTimeout, xfault.CategoryTransient, true},
		{"closed", pulsar.ErrProducerClosed, xfault.CategoryTransient, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFactory{send: func(*pulsar.ProducerMessage) (pulsar.MessageID, error) {
				return nil, tt.err
			}}
			s := newTestSender(t, f)

			_, err := s.Send(context.Background(), xpublish.Entry{Bus: "kyc"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			c := xfault.Classify(err, xfault.WithService(xfault.ServiceEventBus))
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.retryable, c.Retryable)
		})
	}
}

func TestSender_ProducerClosedIsRecreated(t *testing.T) {
	var calls int
	f := &fakeFactory{}
	f.send = func(*pulsar.ProducerMessage) (pulsar.MessageID, error) {
		calls++
		if calls == 1 {
			return nil, pulsar.ErrProducerClosed
		}
		return pulsar.NewMessageID(2, 0, 0, 0), nil
	}
	s := newTestSender(t, f)

	_, err := s.Send(context.Background(), xpublish.Entry{Bus: "kyc"})
	require.Error(t, err)
	assert.Zero(t, s.Producers())
	assert.Contains(t, err.Error(), mqcore.FailurePutFailed)

	_, err = s.Send(context.Background(), xpublish.Entry{Bus: "kyc"})
	require.NoError(t, err)
	assert.Len(t, f.created(), 2)
	assert.True(t, f.created()[0].isClosed())
}

func fastConfig() xpublish.Config {
	cfg := xpublish.DefaultConfig()
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestSender_ProducerClosedIsRetriedByPublisher(t *testing.T) {
	var calls atomic.Int32
	f := &fakeFactory{}
	f.send = func(*pulsar.ProducerMessage) (pulsar.MessageID, error) {
		if calls.Add(1) == 1 {
			return nil, pulsar.ErrProducerClosed
		}
		return pulsar.NewMessageID(2, 0, 0, 0), nil
	}
	s := newTestSender(t, f)
	p, err := xpublish.New(s)
	require.NoError(t, err)

	res, err := p.PublishOne(context.Background(), xpublish.Entry{Bus: "kyc"}, fastConfig())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.RetryCount)
	assert.Len(t, f.created(), 2)
}

func TestSender_EvictionWaitsForInFlightSends(t *testing.T) {
	f := &fakeFactory{delay: 20 * time.Millisecond}
	s := newTestSender(t, f, WithMaxProducers(1))
	p, err := xpublish.New(s)
	require.NoError(t, err)

	entries := make([]xpublish.Entry, 4)
	for i := range entries {
		entries[i] = xpublish.Entry{Bus: fmt.Sprintf("t%d", i)}
	}
	cfg := fastConfig()
	cfg.Retry.MaxRetries = 0

	results := p.PublishBatch(context.Background(), entries, cfg, len(entries))
	for i, r := range results {
		assert.True(t, r.Success, "index %d: %s", i, r.FailureReason)
	}

	ps := f.created()
	require.Len(t, ps, len(entries))
	closed := 0
	for _, fp := range ps {
		if fp.isClosed() {
			closed++
		}
	}
	assert.Equal(t, len(entries)-1, closed)
	assert.Equal(t, 1, s.Producers())
}

func TestSender_SlowCreateDoesNotBlockCachedTopics(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	f := &fakeFactory{}
	create := func(topic string) (producer, error) {
		if topic == "slow" {
			close(started)
			<-release
		}
		return f.create(topic)
	}
	s, err := newSender(create, defaultSenderOptions())
	require.NoError(t, err)

	_, err = s.Send(context.Background(), xpublish.Entry{Bus: "fast"})
	require.NoError(t, err)

	slowDone := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), xpublish.Entry{Bus: "slow"})
		slowDone <- err
	}()
	defer func() {
		unblock()
		assert.NoError(t, <-slowDone)
	}()
	<-started

	fastDone := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), xpublish.Entry{Bus: "fast"})
		fastDone <- err
	}()
	select {
	case err := <-fastDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		unblock()
		<-fastDone
		t.Fatal("send to a cached topic waited for another topic's producer")
	}
}
