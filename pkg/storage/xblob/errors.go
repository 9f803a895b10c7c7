package xblob

import (
	"errors"

	"gocloud.dev/gcerrors"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

var (
	// ErrNilBucket 表示传入的 bucket 为 nil。
	ErrNilBucket = errors.New("xblob: nil bucket")

	// ErrEmptyKey 表示对象 key 为空。
	ErrEmptyKey = errors.New("xblob: empty key")
)

// failureName 把 gcerrors 错误码映射为对象存储错误名，无法识别时返回空串。
func failureName(err error) string {
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return "NoSuchKey"
	case gcerrors.PermissionDenied:
		return "AccessDenied"
	case gcerrors.InvalidArgument:
		return "InvalidArgument"
	case gcerrors.FailedPrecondition:
		return "FailedPrecondition"
	case gcerrors.AlreadyExists:
		return "AlreadyExists"
	case gcerrors.ResourceExhausted:
		return "SlowDown"
	case gcerrors.DeadlineExceeded:
		return "RequestTimeout"
	case gcerrors.Internal:
		return "InternalError"
	default:
		return ""
	}
}

// wrapError 为驱动错误附加错误名，供分类器查表。
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	name := failureName(err)
	if name == "" {
		return err
	}
	return xfault.NewError(xfault.Failure{
		Name:    name,
		Code:    name,
		Message: err.Error(),
		Err:     err,
	})
}

// IsNotFound 报告 err 是否表示对象不存在。
func IsNotFound(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
