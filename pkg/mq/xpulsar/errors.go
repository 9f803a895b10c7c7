package xpulsar

import (
	"errors"

	"github.com/omeyang/xkyc/internal/mqcore"
)

// 重导出共享错误
var (
	// ErrNilClient 表示传入的客户端为空。
	ErrNilClient = mqcore.ErrNilClient

	// ErrClosed 表示 Sender 已关闭。
	ErrClosed = mqcore.ErrClosed

	// ErrEmptyBus 表示消息没有目标 topic。
	ErrEmptyBus = mqcore.ErrEmptyBus
)

// Pulsar 特有错误
var (
	// ErrEmptyURL 表示 URL 为空。
	ErrEmptyURL = errors.New("xpulsar: empty URL")
)
