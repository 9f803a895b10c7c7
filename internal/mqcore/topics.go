package mqcore

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTopicCacheSize 默认缓存的 topic 数量。
const DefaultTopicCacheSize = 64

// slot 是一个 topic 的缓存槽。ready 关闭前 v、err 未就绪。
type slot[V any] struct {
	ready   chan struct{}
	v       V
	err     error
	refs    int
	evicted bool
}

type retiredHandle[V any] struct {
	topic string
	v     V
}

// TopicCache 按 topic 缓存生产者句柄。
//
// 句柄通过 Acquire 借出，用完后必须调用 Lease.Release。
// 超出容量时淘汰最久未使用的槽；被淘汰的句柄在最后一个借用者归还后才调用 onEvict 释放，
// 因此不会关闭正在使用的句柄。同一 topic 只创建一次，创建在锁外执行，不阻塞其他 topic。
type TopicCache[V any] struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, *slot[V]]
	onEvict func(topic string, v V)
	retired []retiredHandle[V]
	closed  bool
}

// NewTopicCache 创建 TopicCache。size <= 0 时使用 DefaultTopicCacheSize，onEvict 可以为 nil。
func NewTopicCache[V any](size int, onEvict func(topic string, v V)) (*TopicCache[V], error) {
	if size <= 0 {
		size = DefaultTopicCacheSize
	}
	c := &TopicCache[V]{onEvict: onEvict}
	cache, err := lru.NewWithEvict[string, *slot[V]](size, c.evict)
	if err != nil {
		return nil, fmt.Errorf("mq: create topic cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

// evict 由 lru 在持锁时回调。
func (c *TopicCache[V]) evict(topic string, s *slot[V]) {
	s.evicted = true
	c.retire(topic, s)
}

// retire 在槽已淘汰、无人借用且创建成功时登记释放。调用方持锁。
func (c *TopicCache[V]) retire(topic string, s *slot[V]) {
	if s.evicted && s.refs == 0 && s.err == nil {
		c.retired = append(c.retired, retiredHandle[V]{topic: topic, v: s.v})
	}
}

// unlock 解锁后释放登记的句柄，onEvict 不在锁内执行。
func (c *TopicCache[V]) unlock() {
	retired := c.retired
	c.retired = nil
	c.mu.Unlock()
	if c.onEvict == nil {
		return
	}
	for _, r := range retired {
		c.onEvict(r.topic, r.v)
	}
}

// Lease 是一次借用。Value 在 Release 之前保持有效。
type Lease[V any] struct {
	Value V

	c     *TopicCache[V]
	topic string
	s     *slot[V]
	once  sync.Once
}

// Release 归还句柄。重复调用无效果。
func (l *Lease[V]) Release() {
	l.once.Do(func() {
		l.c.mu.Lock()
		l.s.refs--
		l.c.retire(l.topic, l.s)
		l.c.unlock()
	})
}

// Discard 把句柄标记为不可用并归还：缓存中仍是该句柄时将其移除，下一次 Acquire 重新创建。
func (l *Lease[V]) Discard() {
	l.c.mu.Lock()
	if cur, ok := l.c.cache.Peek(l.topic); ok && cur == l.s {
		l.c.cache.Remove(l.topic)
	}
	l.c.unlock()
	l.Release()
}

// Acquire 借出 topic 对应的句柄，不存在时调用 create 创建并缓存。
// 同一 topic 的并发调用只创建一次，其余调用等待创建结果或 ctx 结束；create 失败时不缓存。
func (c *TopicCache[V]) Acquire(ctx context.Context, topic string, create func(topic string) (V, error)) (*Lease[V], error) {
	if topic == "" {
		return nil, ErrEmptyBus
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if s, ok := c.cache.Get(topic); ok {
		s.refs++
		c.mu.Unlock()
		return c.await(ctx, topic, s)
	}

	s := &slot[V]{ready: make(chan struct{}), refs: 1}
	c.cache.Add(topic, s)
	c.unlock()

	v, err := create(topic)

	c.mu.Lock()
	s.v, s.err = v, err
	close(s.ready)
	if err != nil {
		if cur, ok := c.cache.Peek(topic); ok && cur == s {
			c.cache.Remove(topic)
		}
		s.refs--
		c.unlock()
		return nil, err
	}
	c.mu.Unlock()
	return &Lease[V]{Value: v, c: c, topic: topic, s: s}, nil
}

// await 等待其他调用方创建的句柄。调用方已为 s 增加引用。
func (c *TopicCache[V]) await(ctx context.Context, topic string, s *slot[V]) (*Lease[V], error) {
	l := &Lease[V]{c: c, topic: topic, s: s}
	select {
	case <-s.ready:
	case <-ctx.Done():
		l.Release()
		return nil, context.Cause(ctx)
	}
	if s.err != nil {
		l.Release()
		return nil, s.err
	}
	l.Value = s.v
	return l, nil
}

// Len 返回当前缓存的槽数，包括创建中的槽。
func (c *TopicCache[V]) Len() int {
	return c.cache.Len()
}

// Close 淘汰所有槽：空闲句柄立即释放，借出中的句柄在归还时释放。
// 之后的 Acquire 返回 ErrClosed，重复调用返回 ErrClosed。
func (c *TopicCache[V]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	c.cache.Purge()
	c.unlock()
	return nil
}
