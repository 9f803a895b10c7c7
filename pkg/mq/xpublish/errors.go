package xpublish

import (
	"errors"
	"fmt"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

var (
	// ErrNilSender Sender 为 nil。
	ErrNilSender = errors.New("xpublish: nil sender")
	// ErrTimeout 单次尝试超时。
	ErrTimeout = errors.New("xpublish: publish attempt timed out")
	// ErrRejected 总线带内拒绝。
	ErrRejected = errors.New("xpublish: entry rejected by bus")
	// ErrSenderPanic Sender 发生 panic。
	ErrSenderPanic = errors.New("xpublish: sender panicked")
)

// PublishError 单条发布的终止错误。
type PublishError struct {
	// Category 最后一次失败的分类。
	Category xfault.Category
	// Retryable 最后一次失败是否可重试（为 true 说明是重试次数用尽或被中断）。
	Retryable bool
	// RetryCount 实际使用的重试次数。
	RetryCount int
	// Reason 面向排障的失败描述。
	Reason string
	// Err 最后一次底层错误，可能为 nil。
	Err error
}

// Error 实现 error 接口。
func (e *PublishError) Error() string {
	return fmt.Sprintf("xpublish: publish failed [%s] after %d retries: %s", e.Category, e.RetryCount, e.Reason)
}

// Unwrap 返回最后一次底层错误。
func (e *PublishError) Unwrap() error {
	return e.Err
}

// rejection 把带内失败转换为携带错误名的 error，供分类器识别。
func rejection(ack Ack) error {
	return fmt.Errorf("%w: %w", ErrRejected, xfault.NewError(xfault.Failure{
		Name:    ack.FailureCode,
		Code:    ack.FailureCode,
		Message: ack.FailureMessage,
	}))
}
