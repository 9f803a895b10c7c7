package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Builder 日志配置构建器
type Builder struct {
	output    io.Writer
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	attrs     []slog.Attr
	closer    io.Closer
	onError   func(error)
	err       error
}

// New 创建配置构建器，默认输出到 stderr、Info 级别、text 格式。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置日志输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err == nil && w != nil {
		b.output = w
	}
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err == nil {
		b.levelVar.Set(slog.Level(level))
	}
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值视为 text。
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		b.err = fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetAttrs 设置每条日志都携带的固定属性，如服务名。
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// SetRotation 把输出切换到按大小轮转的文件。
func (b *Builder) SetRotation(filename string, r Rotation) *Builder {
	if b.err != nil {
		return b
	}
	w, err := newRotator(filename, r)
	if err != nil {
		b.err = err
		return b
	}
	b.output = w
	b.closer = w
	return b
}

// SetOnError 设置内部错误回调（Handler.Handle 失败时调用）。
// 回调在热路径同步执行，应保持轻量；回调中的 panic 会被隔离。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 构建 Logger 实例
//
// 返回值：
//   - LoggerWithLevel: 日志实例，同时支持动态级别控制
//   - func() error: 清理函数，关闭轮转文件，可重复调用
//   - error: 配置错误
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		if b.closer != nil {
			_ = b.closer.Close() //nolint:errcheck // 配置已失败，关闭错误不再上抛
		}
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}

	var handler slog.Handler
	switch b.format {
	case "json":
		handler = slog.NewJSONHandler(b.output, opts)
	default:
		handler = slog.NewTextHandler(b.output, opts)
	}
	if len(b.attrs) > 0 {
		handler = handler.WithAttrs(b.attrs)
	}

	l := &slogger{
		handler: handler,
		level:   b.levelVar,
		source:  b.addSource,
		faults:  &faults{notify: b.onError},
	}

	var once sync.Once
	closer := b.closer
	cleanup := func() error {
		var err error
		once.Do(func() {
			if closer != nil {
				err = closer.Close()
			}
		})
		return err
	}

	return l, cleanup, nil
}

// Config 日志配置，供 xconf 从文件加载。
type Config struct {
	Level  Level  `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
	// File 非空时写入该文件并按 Rotation 轮转，否则写 stderr。
	File     string   `koanf:"file" json:"file"`
	Rotation Rotation `koanf:"rotation" json:"rotation"`
}

// FromConfig 按配置创建 Builder。
func FromConfig(cfg Config) *Builder {
	b := New().SetLevel(cfg.Level).SetFormat(cfg.Format)
	if cfg.File != "" {
		b.SetRotation(cfg.File, cfg.Rotation)
	}
	return b
}
