package mqcore

import (
	"github.com/omeyang/xkyc/pkg/mq/xpublish"
	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

// 失败码，与 xfault 事件总线表的错误名一致。
const (
	FailureTopicNotFound   = "TopicNotFound"
	FailureMessageTooLarge = "MessageTooLarge"
	FailureInvalidArgument = "InvalidArgument"
	FailureQueueFull       = "QueueFull"
	FailureProducerClosed  = "ProducerClosed"
	FailurePutFailed       = "PutFailed"
	FailureAccessDenied    = "AccessDenied"
	FailureTimeout         = "TimeoutError"
	FailureNetwork         = "NetworkError"
)

// Rejected 返回带内失败应答。
func Rejected(code string, err error) xpublish.Ack {
	ack := xpublish.Ack{FailureCode: code}
	if err != nil {
		ack.FailureMessage = err.Error()
	}
	return ack
}

// SendError 为传输层错误附加失败码，code 为空时原样返回 err。
func SendError(code string, err error) error {
	if code == "" || err == nil {
		return err
	}
	return xfault.NewError(xfault.Failure{
		Name:    code,
		Code:    code,
		Message: err.Error(),
		Err:     err,
	})
}
