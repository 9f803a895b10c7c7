package xretry

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

// Jitter 抖动策略。
type Jitter string

// 支持的抖动策略。
const (
	// JitterNone 不加抖动，直接使用指数延迟。
	JitterNone Jitter = "none"
	// JitterFull 在 [0, exp] 内均匀取值。
	JitterFull Jitter = "full"
	// JitterEqual 在 [exp/2, exp] 内均匀取值。
	JitterEqual Jitter = "equal"
	// JitterDecorrelated 在 [上次实际延迟, exp*3] 内均匀取值，并截断到 MaxDelay。
	JitterDecorrelated Jitter = "decorrelated"
)

// ParseJitter 解析抖动策略（大小写不敏感），空字符串返回 JitterFull。
func ParseJitter(s string) (Jitter, error) {
	switch j := Jitter(strings.ToLower(strings.TrimSpace(s))); j {
	case "":
		return JitterFull, nil
	case JitterNone, JitterFull, JitterEqual, JitterDecorrelated:
		return j, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidJitter, s)
	}
}

// UnmarshalText 实现 encoding.TextUnmarshaler，供 koanf/json 解码使用。
func (j *Jitter) UnmarshalText(text []byte) error {
	v, err := ParseJitter(string(text))
	if err != nil {
		return err
	}
	*j = v
	return nil
}

// String 实现 fmt.Stringer。
func (j Jitter) String() string {
	return string(j)
}

// Config 一次重试执行的配置。按值传递，执行过程中不会被修改。
//
// 零值 Config 表示只执行一次、不等待。
type Config struct {
	// MaxRetries 首次尝试之外的最大重试次数，总尝试次数为 MaxRetries+1。负数按 0 处理。
	MaxRetries int `koanf:"max_retries" json:"max_retries"`
	// BaseDelay 第一次重试前的基础延迟。
	BaseDelay time.Duration `koanf:"base_delay" json:"base_delay"`
	// MaxDelay 单次延迟上限，任何计算出的延迟都不会超过它。
	MaxDelay time.Duration `koanf:"max_delay" json:"max_delay"`
	// Jitter 抖动策略，空值按 full 处理。
	Jitter Jitter `koanf:"jitter" json:"jitter"`
	// RetryableNames 错误名/错误码白名单，命中即视为可重试的 TRANSIENT 错误。
	RetryableNames []string `koanf:"retryable_names" json:"retryable_names"`
	// Service 选择分类器使用的服务专属错误码表。
	Service xfault.Service `koanf:"service" json:"service"`
}

// DefaultConfig 返回默认配置：3 次重试、200ms 基础延迟、10s 上限、full 抖动。
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Jitter:     JitterFull,
		Service:    xfault.ServiceGeneric,
	}
}

// Attempts 返回总尝试次数（至少为 1）。
func (c Config) Attempts() int {
	if c.MaxRetries < 0 {
		return 1
	}
	return c.MaxRetries + 1
}

// Validate 校验抖动策略是否合法。其余字段在使用时截断，不做校验。
func (c Config) Validate() error {
	if c.Jitter == "" {
		return nil
	}
	_, err := ParseJitter(string(c.Jitter))
	return err
}

// classifyOptions 把配置转换为分类选项。
func (c Config) classifyOptions() []xfault.Option {
	opts := make([]xfault.Option, 0, 2)
	if c.Service != "" {
		opts = append(opts, xfault.WithService(c.Service))
	}
	if len(c.RetryableNames) > 0 {
		opts = append(opts, xfault.WithRetryableNames(c.RetryableNames...))
	}
	return opts
}
