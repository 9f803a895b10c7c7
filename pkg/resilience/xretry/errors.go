package xretry

import (
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

var (
	// ErrNilRetryer Retryer 为 nil。
	ErrNilRetryer = errors.New("xretry: nil retryer")
	// ErrNilContext context 为 nil。
	ErrNilContext = errors.New("xretry: nil context")
	// ErrNilFunc 操作函数为 nil。
	ErrNilFunc = errors.New("xretry: nil function")
	// ErrInvalidJitter 未知的抖动策略。
	ErrInvalidJitter = errors.New("xretry: invalid jitter strategy")
)

// RetryError 是重试执行的终止错误：重试耗尽、遇到不可重试错误或 context 结束。
type RetryError struct {
	// Operation 操作名。
	Operation string
	// Attempts 实际执行的尝试次数。
	Attempts int
	// TotalDelay 实际等待时间之和。
	TotalDelay time.Duration
	// LastErr 最后一次尝试返回的错误，context 在首次尝试前结束时为 nil。
	LastErr error
	// Classification 最后一次错误的分类结果。
	Classification xfault.Classification
	// Cause 执行被 context 中断时的原因，否则为 nil。
	Cause error
}

// Error 实现 error 接口。
func (e *RetryError) Error() string {
	switch {
	case e.Cause != nil && e.LastErr != nil:
		return fmt.Sprintf("xretry: %s interrupted after %d attempt(s): %v: %v", e.Operation, e.Attempts, e.Cause, e.LastErr)
	case e.Cause != nil:
		return fmt.Sprintf("xretry: %s interrupted after %d attempt(s): %v", e.Operation, e.Attempts, e.Cause)
	default:
		return fmt.Sprintf("xretry: %s failed after %d attempt(s): %v", e.Operation, e.Attempts, e.LastErr)
	}
}

// Unwrap 同时暴露 LastErr 和 Cause，errors.Is/As 对两者都生效。
func (e *RetryError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.LastErr != nil {
		errs = append(errs, e.LastErr)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Exhausted 报告错误是否因为尝试次数用尽（而非不可重试或被中断）。
func (e *RetryError) Exhausted(cfg Config) bool {
	return e.Cause == nil && e.Classification.Retryable && e.Attempts >= cfg.Attempts()
}
