package xretry

import (
	"context"
	"log/slog"
	"time"

	"github.com/omeyang/xkyc/pkg/observability/xlog"
	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

// EventKind 事件类型。
type EventKind string

// 事件类型。
const (
	// EventAttempt 即将执行一次尝试。
	EventAttempt EventKind = "attempt"
	// EventRetry 尝试失败且决定重试，Delay 为即将等待的时间。
	EventRetry EventKind = "retry"
	// EventSuccess 执行成功。
	EventSuccess EventKind = "success"
	// EventFailure 执行最终失败。
	EventFailure EventKind = "failure"
)

// Event 重试过程中的结构化事件。
type Event struct {
	Kind       EventKind
	Operation  string
	Attempt    int
	MaxRetries int
	Delay      time.Duration
	// TotalDelay 截至本事件已累计等待的时间。
	TotalDelay time.Duration
	Err        error
	// ErrorName 归一化后的错误名（或错误码）。
	ErrorName    string
	ErrorMessage string
	Category     xfault.Category
	Retryable    bool
}

// Observer 接收重试事件。
// 回调是同步调用的，实现应尽快返回；panic 会被吞掉，不影响重试流程。
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// ObserverFunc 函数适配器。
type ObserverFunc func(ctx context.Context, e Event)

// Observe 实现 Observer。
func (f ObserverFunc) Observe(ctx context.Context, e Event) {
	f(ctx, e)
}

type multiObserver []Observer

func (m multiObserver) Observe(ctx context.Context, e Event) {
	for _, o := range m {
		notify(ctx, o, e)
	}
}

// Observers 把多个 Observer 合并为一个，nil 会被跳过。
func Observers(obs ...Observer) Observer {
	m := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// notify 调用观察者并隔离其 panic。
func notify(ctx context.Context, o Observer, e Event) {
	if o == nil {
		return
	}
	defer func() {
		_ = recover() //nolint:errcheck // 观察者失败不影响重试
	}()
	o.Observe(ctx, e)
}

// LogObserver 把事件写成结构化日志：attempt 为 Debug，retry 为 Warn，
// success 为 Debug（发生过重试时为 Info），failure 为 Error。
func LogObserver(l xlog.Logger) Observer {
	if l == nil {
		return nil
	}
	return ObserverFunc(func(ctx context.Context, e Event) {
		attrs := []slog.Attr{
			xlog.Operation(e.Operation),
			xlog.Attempt(e.Attempt),
			xlog.MaxRetries(e.MaxRetries),
		}
		if e.Err != nil {
			attrs = append(attrs,
				xlog.ErrorName(e.ErrorName),
				xlog.Err(e.Err),
				xlog.Category(string(e.Category)),
			)
		}

		switch e.Kind {
		case EventAttempt:
			l.Debug(ctx, "retry attempt", attrs...)
		case EventRetry:
			l.Warn(ctx, "retry scheduled", append(attrs, xlog.Delay(e.Delay))...)
		case EventSuccess:
			if e.Attempt > 1 {
				l.Info(ctx, "retry succeeded", append(attrs, xlog.Delay(e.TotalDelay))...)
			} else {
				l.Debug(ctx, "operation succeeded", attrs...)
			}
		case EventFailure:
			l.Error(ctx, "retry failed", append(attrs, xlog.Delay(e.TotalDelay))...)
		}
	})
}
