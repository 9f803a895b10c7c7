package xpublish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xkyc/pkg/observability/xlog"
	"github.com/omeyang/xkyc/pkg/resilience/xfault"
	"github.com/omeyang/xkyc/pkg/resilience/xretry"
)

// OperationPublish 重试事件中的操作名。
const OperationPublish = "eventbus.publish"

// Publisher 可靠发布器，并发安全。
type Publisher struct {
	sender    Sender
	retryer   *xretry.Retryer
	logger    xlog.Logger
	observers []xretry.Observer
}

// Option 发布器选项。
type Option func(*Publisher)

// WithRetryer 使用外部 Retryer。此时 WithObserver 不生效，观察者应配置在该 Retryer 上。
func WithRetryer(r *xretry.Retryer) Option {
	return func(p *Publisher) {
		if r != nil {
			p.retryer = r
		}
	}
}

// WithLogger 设置日志，重试事件也会写入该日志。
func WithLogger(l xlog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver 追加重试事件观察者，如 xmetrics.RetryObserver。
func WithObserver(o xretry.Observer) Option {
	return func(p *Publisher) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// New 创建发布器。
func New(sender Sender, opts ...Option) (*Publisher, error) {
	if sender == nil {
		return nil, ErrNilSender
	}
	p := &Publisher{sender: sender}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = xlog.Discard()
	}
	if p.retryer == nil {
		ropts := []xretry.RetryerOption{xretry.WithObserver(xretry.LogObserver(p.logger))}
		for _, o := range p.observers {
			ropts = append(ropts, xretry.WithObserver(o))
		}
		p.retryer = xretry.NewRetryer(ropts...)
	}
	return p, nil
}

// PublishOne 发布一条消息，失败重试直到成功、遇到不可重试错误或重试用尽。
// 终止时返回 *PublishError。
func (p *Publisher) PublishOne(ctx context.Context, entry Entry, cfg Config) (Result, error) {
	start := time.Now()
	ctx = xlog.ContextWith(ctx, entryAttrs(entry)...)

	rcfg := cfg.Retry
	if rcfg.Service == "" || rcfg.Service == xfault.ServiceGeneric {
		rcfg.Service = xfault.ServiceEventBus
	}

	out, err := xretry.Execute(ctx, p.retryer, OperationPublish, rcfg, func(ctx context.Context) (Ack, error) {
		return p.attempt(ctx, entry, cfg.Timeout)
	})
	if err != nil {
		pe := toPublishError(err)
		p.logger.Warn(ctx, "publish failed",
			xlog.Category(string(pe.Category)),
			xlog.Attempt(out.Attempts),
			xlog.Err(err),
		)
		return Result{}, pe
	}

	return Result{
		Success:    true,
		MessageID:  out.Result.MessageID,
		RetryCount: max(out.Attempts-1, 0),
		Duration:   time.Since(start),
	}, nil
}

// entryAttrs 返回标识一条消息的日志属性，重试日志经 ctx 携带。
func entryAttrs(e Entry) []slog.Attr {
	attrs := make([]slog.Attr, 0, 2)
	if e.Bus != "" {
		attrs = append(attrs, xlog.Bus(e.Bus))
	}
	if e.DetailType != "" {
		attrs = append(attrs, xlog.DetailType(e.DetailType))
	}
	return attrs
}

type reply struct {
	ack Ack
	err error
}

// attempt 执行一次发送，并与 timeout 赛跑。
// 超时后不等待 Sender 返回，其结果被丢弃；Sender 的 ctx 同时被取消。
func (p *Publisher) attempt(ctx context.Context, entry Entry, timeout time.Duration) (Ack, error) {
	actx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		actx, cancel = context.WithTimeoutCause(ctx, timeout, ErrTimeout)
	}
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("%w: %v", ErrSenderPanic, r)}
			}
		}()
		ack, err := p.sender.Send(actx, entry)
		done <- reply{ack: ack, err: err}
	}()

	select {
	case r := <-done:
		switch {
		case r.err != nil:
			if errors.Is(context.Cause(actx), ErrTimeout) && ctx.Err() == nil {
				return Ack{}, timeoutError(timeout)
			}
			return Ack{}, r.err
		case r.ack.Failed():
			return Ack{}, rejection(r.ack)
		default:
			return r.ack, nil
		}
	case <-actx.Done():
		if ctx.Err() != nil {
			return Ack{}, context.Cause(ctx)
		}
		return Ack{}, timeoutError(timeout)
	}
}

// timeoutError 固定为可重试的 TRANSIENT，不再经过分类器。
func timeoutError(timeout time.Duration) error {
	return xfault.Classified(fmt.Errorf("%w after %s", ErrTimeout, timeout), xfault.Classification{
		Category:  xfault.CategoryTransient,
		Retryable: true,
		Service:   xfault.ServiceEventBus,
	})
}

func toPublishError(err error) *PublishError {
	pe := &PublishError{
		Category: xfault.CategorySystem,
		Reason:   err.Error(),
		Err:      err,
	}
	var re *xretry.RetryError
	if !errors.As(err, &re) {
		return pe
	}

	pe.RetryCount = max(re.Attempts-1, 0)
	pe.Retryable = re.Classification.Retryable
	if re.Classification.Category != "" {
		pe.Category = re.Classification.Category
	}
	if re.LastErr != nil {
		pe.Err = re.LastErr
	} else if re.Cause != nil {
		pe.Err = re.Cause
	}
	switch {
	case re.Cause != nil:
		pe.Reason = fmt.Sprintf("interrupted: %v", re.Cause)
	case re.Classification.TechnicalMessage != "":
		pe.Reason = re.Classification.TechnicalMessage
	case re.LastErr != nil:
		pe.Reason = re.LastErr.Error()
	}
	return pe
}

// PublishBatch 按窗口并发发布 entries，返回与输入等长且同序的结果。
//
// limit 为每个窗口的大小，<=0 时使用 cfg.Concurrency，仍 <=0 时使用 DefaultConcurrency。
// 单条失败转换为 Result{Success:false, FailureReason: err.Error()}，RetryCount 和 Duration 为 0。
func (p *Publisher) PublishBatch(ctx context.Context, entries []Entry, cfg Config, limit int) []Result {
	if limit <= 0 {
		limit = cfg.Concurrency
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	start := time.Now()
	results := make([]Result, len(entries))
	for lo := 0; lo < len(entries); lo += limit {
		hi := min(lo+limit, len(entries))

		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				r, err := p.PublishOne(ctx, entries[i], cfg)
				if err != nil {
					r = Result{Success: false, FailureReason: err.Error()}
				}
				results[i] = r
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // 每个 goroutine 都返回 nil
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	p.logger.Info(ctx, "batch published",
		xlog.Count(len(entries)),
		xlog.FailureCount(failed),
		xlog.Duration(time.Since(start)),
	)
	return results
}
