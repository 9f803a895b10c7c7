package xlog

import (
	"log/slog"
	"time"
)

// 标准字段名，重试和发布日志使用同一套 key。
const (
	KeyError        = "error"
	KeyErrorName    = "error_name"
	KeyOperation    = "operation"
	KeyComponent    = "component"
	KeyAttempt      = "attempt"
	KeyMaxRetries   = "max_retries"
	KeyDelay        = "delay"
	KeyDuration     = "duration"
	KeyCategory     = "category"
	KeyService      = "service"
	KeyMessageID    = "message_id"
	KeyBus          = "bus"
	KeyDetailType   = "detail_type"
	KeyCount        = "count"
	KeyFailureCount = "failure_count"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）。
//
//	if err != nil {
//	    logger.Error(ctx, "publish failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorName 错误名或错误码。
func ErrorName(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String(KeyErrorName, name)
}

// Operation 操作名。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Component 组件名。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Attempt 当前尝试序号（从 1 开始）。
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries 最大重试次数。
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// Delay 等待时间。
func Delay(d time.Duration) slog.Attr {
	return slog.Duration(KeyDelay, d)
}

// Duration 耗时。
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Category 错误分类。
func Category(c string) slog.Attr {
	if c == "" {
		return slog.Attr{}
	}
	return slog.String(KeyCategory, c)
}

// Service 远程服务类型。
func Service(s string) slog.Attr {
	return slog.String(KeyService, s)
}

// MessageID 消息 ID。
func MessageID(id string) slog.Attr {
	return slog.String(KeyMessageID, id)
}

// Bus 目标消息总线。
func Bus(name string) slog.Attr {
	return slog.String(KeyBus, name)
}

// DetailType 事件类型。
func DetailType(t string) slog.Attr {
	return slog.String(KeyDetailType, t)
}

// Count 计数。
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// FailureCount 失败数。
func FailureCount(n int) slog.Attr {
	return slog.Int(KeyFailureCount, n)
}
