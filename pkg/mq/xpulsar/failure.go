package xpulsar

import (
	"errors"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/omeyang/xkyc/internal/mqcore"
)

// failureCode 把 *pulsar.Error 映射为事件总线错误名，无法识别时返回空串。
func failureCode(err error) string {
	var perr *pulsar.Error
	if !errors.As(err, &perr) {
		return ""
	}

	switch perr.Result() {
	case pulsar.MessageTooBig:
		return mqcore.FailureMessageTooLarge
	case pulsar.TopicNotFound:
		return mqcore.FailureTopicNotFound
	case pulsar.AuthorizationError, pulsar.AuthenticationError:
		return mqcore.FailureAccessDenied
	case pulsar.ProducerQueueIsFull, pulsar.ClientMemoryBufferIsFull:
		return mqcore.FailureQueueFull
	case pulsar.TimeoutError:
		return mqcore.FailureTimeout
	case pulsar.ConnectError, pulsar.NotConnectedError:
		return mqcore.FailureNetwork
	case pulsar.ProducerClosed, pulsar.AlreadyClosedError:
		return mqcore.FailureProducerClosed
	default:
		return ""
	}
}

// inBand 报告失败码是否表示总线拒绝了这条消息。
func inBand(code string) bool {
	switch code {
	case mqcore.FailureMessageTooLarge, mqcore.FailureTopicNotFound, mqcore.FailureAccessDenied:
		return true
	default:
		return false
	}
}
