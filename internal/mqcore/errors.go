package mqcore

import "errors"

// 共享错误定义。
// 错误前缀使用 "mq:"，这些错误会被各 Sender 包重导出给终端用户。
var (
	// ErrNilClient 表示传入的客户端为空。
	ErrNilClient = errors.New("mq: nil client")

	// ErrClosed 表示 Sender 已关闭。
	ErrClosed = errors.New("mq: sender closed")

	// ErrEmptyBus 表示消息没有目标总线，且 Sender 未配置默认总线。
	ErrEmptyBus = errors.New("mq: empty bus")
)
