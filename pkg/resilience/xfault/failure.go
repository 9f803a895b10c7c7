package xfault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Failure 是所有失败形态归一化后的唯一结构，分类器只处理这一种形态。
type Failure struct {
	// Name 错误名称，如 "ThrottlingException"、"NetworkError"。
	Name string
	// Message 错误描述。
	Message string
	// Code 远程服务返回的错误码，如 "SlowDown"、"NoSuchKey"。
	Code string
	// HTTPStatus HTTP 语义的状态码，0 表示未知。
	HTTPStatus int
	// Err 原始错误，可能为 nil（例如输入是字符串）。
	Err error
}

// Empty 报告 f 是否不携带任何可识别信息。
func (f Failure) Empty() bool {
	return f.Name == "" && f.Message == "" && f.Code == "" && f.HTTPStatus == 0
}

// String 返回 "name[code]: message" 形式的技术描述。
func (f Failure) String() string {
	var b strings.Builder
	if f.Name != "" {
		b.WriteString(f.Name)
	}
	if f.Code != "" && f.Code != f.Name {
		b.WriteString("[")
		b.WriteString(f.Code)
		b.WriteString("]")
	}
	if f.HTTPStatus != 0 {
		fmt.Fprintf(&b, "(status %d)", f.HTTPStatus)
	}
	if f.Message != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(f.Message)
	}
	if b.Len() == 0 {
		return "unknown failure"
	}
	return b.String()
}

// Error 是携带 Failure 的 error 实现。
// 适配层（xkafka、xblob、xmongo 等）把 SDK 错误包装成 *Error，
// 以便分类器拿到错误名和错误码，而不必依赖各 SDK。
type Error struct {
	Failure Failure
}

// NewError 创建 *Error。f.Err 作为 Unwrap 目标。
func NewError(f Failure) *Error {
	return &Error{Failure: f}
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	if e == nil {
		return Failure{}.String()
	}
	return e.Failure.String()
}

// Unwrap 返回原始错误。
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Failure.Err
}

// 常见错误形态的可选接口。
type (
	apiError interface {
		ErrorCode() string
	}
	apiMessage interface {
		ErrorMessage() string
	}
	httpStatusCoder interface {
		HTTPStatusCode() int
	}
	statusCoder interface {
		StatusCode() int
	}
)

// Normalize 把任意失败值归一化为 Failure。
//
// 支持的输入：nil、Failure、*Failure、*Error、*ClassifiedError、实现
// ErrorCode()/ErrorMessage()/HTTPStatusCode()/StatusCode() 的 API 错误、
// net.Error、context 错误、普通 error、string、fmt.Stringer。
// 其他任意值归一化为 Name="UnknownError"，类型名只保留在 Err 中，
// Message 为空，不会被子串规则误判。
// 外部类型的方法在 nil 接收者上 panic 时同样归一化为 UnknownError。
func Normalize(v any) (f Failure) {
	defer func() {
		if r := recover(); r != nil {
			f = Failure{Name: "UnknownError", Err: fmt.Errorf("normalize failure of type %T: %v", v, r)}
		}
	}()

	switch x := v.(type) {
	case nil:
		return Failure{}
	case Failure:
		return x
	case *Failure:
		if x == nil {
			return Failure{}
		}
		return *x
	case error:
		return normalizeError(x)
	case string:
		return Failure{Message: x}
	case fmt.Stringer:
		return Failure{Message: x.String()}
	default:
		return Failure{Name: "UnknownError", Err: fmt.Errorf("unrecognized failure of type %T", v)}
	}
}

func normalizeError(err error) Failure {
	var fe *Error
	if errors.As(err, &fe) && fe != nil {
		f := fe.Failure
		if f.Err == nil {
			f.Err = err
		}
		return f
	}

	f := Failure{Message: err.Error(), Err: err}

	var ae apiError
	if errors.As(err, &ae) {
		f.Code = ae.ErrorCode()
		f.Name = f.Code
		var am apiMessage
		if errors.As(err, &am) && am.ErrorMessage() != "" {
			f.Message = am.ErrorMessage()
		}
	}

	var hs httpStatusCoder
	var sc statusCoder
	switch {
	case errors.As(err, &hs):
		f.HTTPStatus = hs.HTTPStatusCode()
	case errors.As(err, &sc):
		f.HTTPStatus = sc.StatusCode()
	}

	if f.Name != "" {
		return f
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		f.Name = "TimeoutError"
	case errors.Is(err, context.Canceled):
		f.Name = "Canceled"
	default:
		var ne net.Error
		if errors.As(err, &ne) {
			if ne.Timeout() {
				f.Name = "TimeoutError"
			} else {
				f.Name = "NetworkError"
			}
		}
	}
	return f
}
