package xretry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

// Classifier 对一次失败分类，决定是否重试。
type Classifier func(err error, cfg Config) xfault.Classification

// DefaultClassifier 使用 xfault.Classify，服务表和白名单取自 cfg。
func DefaultClassifier(err error, cfg Config) xfault.Classification {
	return xfault.Classify(err, cfg.classifyOptions()...)
}

// Timer 控制重试之间的等待，测试中可替换为不真正休眠的实现。
type Timer = retry.Timer

type realTimer struct{}

func (realTimer) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Retryer 重试执行器。
//
// Retryer 本身无状态，可在多个 goroutine 间共享；每次执行的退避状态独立。
// 底层使用 avast/retry-go/v5 驱动尝试循环。
type Retryer struct {
	observer   Observer
	classifier Classifier
	timer      Timer
}

// RetryerOption 执行器配置选项。
type RetryerOption func(*Retryer)

// WithObserver 设置事件观察者，多次调用会合并。
func WithObserver(o Observer) RetryerOption {
	return func(r *Retryer) {
		if o == nil {
			return
		}
		if r.observer == nil {
			r.observer = o
			return
		}
		r.observer = Observers(r.observer, o)
	}
}

// WithClassifier 替换默认分类器。
func WithClassifier(c Classifier) RetryerOption {
	return func(r *Retryer) {
		if c != nil {
			r.classifier = c
		}
	}
}

// WithTimer 替换等待计时器。
func WithTimer(t Timer) RetryerOption {
	return func(r *Retryer) {
		if t != nil {
			r.timer = t
		}
	}
}

// NewRetryer 创建重试执行器。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{
		classifier: DefaultClassifier,
		timer:      realTimer{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome 成功执行的结果。
type Outcome[T any] struct {
	Result T
	// Attempts 实际执行的尝试次数（>=1）。
	Attempts int
	// TotalDelay 实际等待时间之和。
	TotalDelay time.Duration
}

// Func 可重试的操作。
type Func[T any] func(ctx context.Context) (T, error)

// execution 单次执行的状态，只在一个 goroutine 中使用。
type execution struct {
	ctx        context.Context
	r          *Retryer
	name       string
	cfg        Config
	attempts   int
	totalDelay time.Duration
	// pending 已安排但尚未完成的等待，下一次尝试开始时计入 totalDelay。
	pending time.Duration
	lastErr error
	last    xfault.Classification
}

func (x *execution) event(kind EventKind) Event {
	e := Event{
		Kind:       kind,
		Operation:  x.name,
		Attempt:    x.attempts,
		MaxRetries: x.cfg.Attempts() - 1,
		TotalDelay: x.totalDelay,
	}
	if kind != EventAttempt && kind != EventSuccess && x.lastErr != nil {
		f := xfault.Normalize(x.lastErr)
		e.Err = x.lastErr
		e.ErrorName = f.Name
		if e.ErrorName == "" {
			e.ErrorName = f.Code
		}
		e.ErrorMessage = f.Message
		e.Category = x.last.Category
		e.Retryable = x.last.Retryable
	}
	return e
}

// After 实现 retry.Timer：发出 retry 事件并登记等待。
// retry-go 只在确定还有下一次尝试时才调用 After；被 ctx 中断的等待不计入 TotalDelay。
func (x *execution) After(d time.Duration) <-chan time.Time {
	e := x.event(EventRetry)
	e.Delay = d
	notify(x.ctx, x.r.observer, e)
	x.pending = d
	return x.r.timer.After(d)
}

func (x *execution) retryIf(err error) bool {
	x.last = x.r.classifier(err, x.cfg)
	if !retry.IsRecoverable(err) {
		x.last.Retryable = false
	}
	return x.last.Retryable
}

// Execute 按 cfg 执行 op，直到成功、遇到不可重试错误或尝试次数用尽。
//
// 失败时返回 *RetryError，Outcome 中仍带有尝试次数和累计等待。
// ctx 结束会中断等待；正在执行的 op 是否中断由 op 自行决定。
func Execute[T any](ctx context.Context, r *Retryer, name string, cfg Config, op Func[T]) (Outcome[T], error) {
	var out Outcome[T]
	if r == nil {
		return out, ErrNilRetryer
	}
	if ctx == nil {
		return out, ErrNilContext
	}
	if op == nil {
		return out, ErrNilFunc
	}

	x := &execution{ctx: ctx, r: r, name: name, cfg: cfg}
	backoff := NewBackoff(cfg)

	result, err := retry.NewWithData[T](
		retry.Context(ctx),
		retry.Attempts(uint(cfg.Attempts())),
		retry.RetryIf(x.retryIf),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			// n 从 1 开始，即刚失败的尝试序号
			return backoff.NextDelay(int(n))
		}),
		retry.WithTimer(x),
		retry.LastErrorOnly(true),
	).Do(func() (T, error) {
		x.attempts++
		x.totalDelay += x.pending
		x.pending = 0
		notify(ctx, r.observer, x.event(EventAttempt))
		v, err := op(ctx)
		if err != nil {
			x.lastErr = err
		}
		return v, err
	})

	out.Attempts = x.attempts
	out.TotalDelay = x.totalDelay
	if err == nil {
		out.Result = result
		notify(ctx, r.observer, x.event(EventSuccess))
		return out, nil
	}

	re := &RetryError{
		Operation:      name,
		Attempts:       x.attempts,
		TotalDelay:     x.totalDelay,
		LastErr:        x.lastErr,
		Classification: x.last,
	}
	// 最后一次错误仍可重试且还有剩余尝试，说明是被 ctx 中断的
	interrupted := x.attempts == 0 || (x.last.Retryable && x.attempts < cfg.Attempts())
	if cause := context.Cause(ctx); cause != nil && interrupted {
		re.Cause = cause
	}
	if re.LastErr == nil && re.Cause == nil {
		re.LastErr = err
	}
	notify(ctx, r.observer, x.event(EventFailure))
	return out, re
}

// Do 是无返回值版本的 Execute。
func (r *Retryer) Do(ctx context.Context, name string, cfg Config, op func(ctx context.Context) error) error {
	if op == nil {
		return ErrNilFunc
	}
	_, err := Execute(ctx, r, name, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Wrap 返回带重试的 op，每次调用都是一次独立的 Execute。
func Wrap[T any](r *Retryer, name string, cfg Config, op Func[T]) Func[T] {
	return func(ctx context.Context) (T, error) {
		out, err := Execute(ctx, r, name, cfg, op)
		return out.Result, err
	}
}

// Unrecoverable 标记 err 不可重试，不论分类结果如何。
func Unrecoverable(err error) error {
	return retry.Unrecoverable(err)
}

// IsRecoverable 报告 err 是否未被 Unrecoverable 标记。
func IsRecoverable(err error) bool {
	return retry.IsRecoverable(err)
}
