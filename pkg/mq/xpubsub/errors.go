package xpubsub

import "github.com/omeyang/xkyc/internal/mqcore"

// 重导出共享错误
var (
	// ErrClosed 表示 Sender 已关闭。
	ErrClosed = mqcore.ErrClosed

	// ErrEmptyBus 表示消息没有目标 topic。
	ErrEmptyBus = mqcore.ErrEmptyBus
)
