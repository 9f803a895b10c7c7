package xmongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

var (
	// ErrNilCollection 表示传入的 collection 为 nil。
	ErrNilCollection = errors.New("xmongo: nil collection")

	// ErrNilDocument 表示传入的文档为 nil。
	ErrNilDocument = errors.New("xmongo: nil document")
)

// 服务端错误码。
const (
	codeDocumentValidationFailure = 121
)

// failureName 从驱动错误中提取错误名，无法识别时返回空串。
func failureName(err error) string {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Name != "" {
		return ce.Name
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		if we.WriteConcernError != nil && we.WriteConcernError.Name != "" {
			return we.WriteConcernError.Name
		}
		for _, e := range we.WriteErrors {
			if e.Code == codeDocumentValidationFailure {
				return "DocumentValidationFailure"
			}
		}
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return "NoMatchingDocument"
	case mongo.IsDuplicateKeyError(err):
		return "DuplicateKey"
	case mongo.IsTimeout(err):
		return "NetworkTimeout"
	case mongo.IsNetworkError(err):
		return "HostUnreachable"
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
