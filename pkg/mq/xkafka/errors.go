package xkafka

import (
	"errors"

	"github.com/omeyang/xkyc/internal/mqcore"
)

// 重导出共享错误
var (
	// ErrNilClient 表示传入的 Producer 为空。
	ErrNilClient = mqcore.ErrNilClient

	// ErrClosed 表示 Sender 已关闭。
	ErrClosed = mqcore.ErrClosed

	// ErrEmptyBus 表示消息没有目标 topic。
	ErrEmptyBus = mqcore.ErrEmptyBus
)

// Kafka 特有错误
var (
	// ErrNilConfig 表示传入的配置为空。
	ErrNilConfig = errors.New("xkafka: nil config")

	// ErrFlushTimeout 表示关闭时消息刷新超时。
	ErrFlushTimeout = errors.New("xkafka: flush timeout")

	// ErrUnexpectedEvent 表示 delivery 通道收到了非消息事件。
	ErrUnexpectedEvent = errors.New("xkafka: unexpected delivery event")
)
