package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// BackoffPolicy 计算重试间隔。
type BackoffPolicy interface {
	// NextDelay 返回第 attempt 次尝试失败后的等待时间，attempt 从 1 开始。
	NextDelay(attempt int) time.Duration
}

// ResettableBackoff 可重置内部状态的退避策略。
type ResettableBackoff interface {
	BackoffPolicy
	Reset()
}

var _ ResettableBackoff = (*Backoff)(nil)

// Backoff 指数退避加抖动。
//
//	exp   = min(BaseDelay * 2^(attempt-1), MaxDelay)
//	none  = exp
//	full  = rand[0, exp]
//	equal = rand[exp/2, exp]
//	decorrelated = min(rand[prev, exp*3], MaxDelay)，prev 为上一次实际返回的延迟，首次为 BaseDelay
//
// decorrelated 有状态，Backoff 不是并发安全的，每次执行应使用独立实例。
type Backoff struct {
	base   time.Duration
	max    time.Duration
	jitter Jitter
	prev   time.Duration
	random func() float64
}

// NewBackoff 根据 cfg 创建退避策略。负的延迟按 0 处理，未知抖动策略按 full 处理。
func NewBackoff(cfg Config) *Backoff {
	b := &Backoff{
		base:   max(cfg.BaseDelay, 0),
		max:    max(cfg.MaxDelay, 0),
		jitter: cfg.Jitter,
		random: randomFloat64,
	}
	switch b.jitter {
	case JitterNone, JitterFull, JitterEqual, JitterDecorrelated:
	default:
		b.jitter = JitterFull
	}
	return b
}

// Exponential 返回 attempt 对应的未加抖动的指数延迟，已截断到 MaxDelay。
func (b *Backoff) Exponential(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if b.base <= 0 || b.max <= 0 {
		return 0
	}
	shift := uint(attempt - 1)
	// base > max>>shift 时 base<<shift 必然超过 max，提前返回避免溢出。
	if shift >= 63 || b.base > b.max>>shift {
		return b.max
	}
	return b.base << shift
}

// NextDelay 实现 BackoffPolicy。
func (b *Backoff) NextDelay(attempt int) time.Duration {
	exp := b.Exponential(attempt)

	var d time.Duration
	switch b.jitter {
	case JitterNone:
		d = exp
	case JitterEqual:
		half := exp / 2
		d = half + b.between(exp-half)
	case JitterDecorrelated:
		d = b.decorrelated(exp)
	default:
		d = b.between(exp)
	}

	if d > b.max {
		d = b.max
	}
	if d < 0 {
		d = 0
	}
	return d
}

func (b *Backoff) decorrelated(exp time.Duration) time.Duration {
	lo := b.prev
	if lo <= 0 {
		lo = b.base
	}
	hi := b.max
	if exp <= math.MaxInt64/3 && exp*3 < hi {
		hi = exp * 3
	}
	if lo > hi {
		lo = hi
	}
	d := lo + b.between(hi-lo)
	b.prev = d
	return d
}

// between 返回 [0, span] 内的均匀随机值。
func (b *Backoff) between(span time.Duration) time.Duration {
	if span <= 0 {
		return 0
	}
	d := time.Duration(b.random() * float64(span))
	if d > span || d < 0 {
		return span
	}
	return d
}

// Reset 清除 decorrelated 抖动的历史状态。
func (b *Backoff) Reset() {
	b.prev = 0
}

const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

// randomFloat64 返回 [0, 1) 内的随机数。
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand 失败时返回 0，即不加抖动
		return 0
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}
