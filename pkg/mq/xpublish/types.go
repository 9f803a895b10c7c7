package xpublish

import (
	"context"
	"time"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
	"github.com/omeyang/xkyc/pkg/resilience/xretry"
)

//go:generate mockgen -source=types.go -destination=mock_sender_test.go -package=xpublish

// Entry 一条待发布的消息。内容对发布器不透明。
type Entry struct {
	// Source 事件来源标签。
	Source string `json:"source"`
	// DetailType 事件类型标签。
	DetailType string `json:"detail_type"`
	// Body 消息体。
	Body []byte `json:"body"`
	// Bus 目标总线（topic/bus 名），原样传给 Sender。
	Bus string `json:"bus"`
}

// Result 一条消息的发布结果。
type Result struct {
	Success bool `json:"success"`
	// MessageID 总线返回的消息 ID，失败时为空。
	MessageID string `json:"message_id,omitempty"`
	// FailureReason 失败原因，成功时为空。
	FailureReason string `json:"failure_reason,omitempty"`
	// RetryCount 实际重试次数（不含首次尝试）。
	RetryCount int `json:"retry_count"`
	// Duration 发布总耗时，包括重试等待。
	Duration time.Duration `json:"duration"`
}

// Ack 总线对一次发送的应答。
// FailureCode 非空表示带内失败：传输层成功，但总线拒绝了这条消息。
type Ack struct {
	MessageID      string
	FailureCode    string
	FailureMessage string
}

// Failed 报告应答是否为带内失败。
func (a Ack) Failed() bool {
	return a.FailureCode != ""
}

// Sender 发送一条消息。实现需要并发安全，并在 ctx 结束后尽快返回。
type Sender interface {
	Send(ctx context.Context, entry Entry) (Ack, error)
}

// SenderFunc 函数适配器。
type SenderFunc func(ctx context.Context, entry Entry) (Ack, error)

// Send 实现 Sender。
func (f SenderFunc) Send(ctx context.Context, entry Entry) (Ack, error) {
	return f(ctx, entry)
}

// 默认值。
const (
	DefaultTimeout     = 5 * time.Second
	DefaultConcurrency = 5
)

// Config 发布配置，按值传递。
type Config struct {
	Retry xretry.Config `koanf:"retry" json:"retry"`
	// Timeout 单次尝试的超时，<=0 表示不限制。
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
	// Concurrency 批量发布时每个窗口的大小，<=0 使用 DefaultConcurrency。
	Concurrency int `koanf:"concurrency" json:"concurrency"`
}

// DefaultConfig 返回默认配置：3 次重试、200ms 基础延迟、5s 上限、full 抖动、5s 超时、并发 5。
func DefaultConfig() Config {
	retry := xretry.DefaultConfig()
	retry.MaxDelay = 5 * time.Second
	retry.Service = xfault.ServiceEventBus
	return Config{
		Retry:       retry,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
	}
}
