package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

var (
	_ LoggerWithLevel = (*slogger)(nil)
	_ Logger          = discard{}
)

// slogger 是 LoggerWithLevel 的 slog 实现。派生 logger 共享级别和写入失败计数。
type slogger struct {
	handler slog.Handler
	level   *slog.LevelVar
	source  bool
	faults  *faults
}

// faults 统计 Handler 写入失败。notify 不会重入，其中的 panic 计为一次失败。
type faults struct {
	count  atomic.Uint64
	busy   atomic.Bool
	notify func(error)
}

func (f *faults) record(err error) {
	f.count.Add(1)
	if f.notify == nil || !f.busy.CompareAndSwap(false, true) {
		return
	}
	defer f.busy.Store(false)
	defer func() {
		if recover() != nil {
			f.count.Add(1)
		}
	}()
	f.notify(err)
}

type ctxAttrsKey struct{}

// ContextWith 返回携带 attrs 的 ctx，之后用该 ctx 记录的每条日志都会附带这些属性。
// 同名 key 以后加入的为准。ctx 为 nil 时原样返回。
func ContextWith(ctx context.Context, attrs ...slog.Attr) context.Context {
	if ctx == nil || len(attrs) == 0 {
		return ctx
	}
	prev := contextAttrs(ctx)
	merged := make([]slog.Attr, 0, len(prev)+len(attrs))
	for _, a := range prev {
		if !hasKey(attrs, a.Key) {
			merged = append(merged, a)
		}
	}
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	return attrs
}

func hasKey(attrs []slog.Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

//go:noinline
func (l *slogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	if l.source {
		var pcs [1]uintptr
		// Callers → log → Info 等 → 调用方
		runtime.Callers(3, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(contextAttrs(ctx)...)
	r.AddAttrs(attrs...)
	if err := l.handler.Handle(ctx, r); err != nil {
		l.faults.record(err)
	}
}

func (l *slogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *slogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *slogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *slogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

func (l *slogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	derived := *l
	derived.handler = l.handler.WithAttrs(attrs)
	return &derived
}

func (l *slogger) SetLevel(level Level) {
	l.level.Set(slog.Level(level))
}

func (l *slogger) GetLevel() Level {
	return Level(l.level.Level())
}

func (l *slogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}
