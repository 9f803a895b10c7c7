package xkafka

import (
	"errors"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/omeyang/xkyc/internal/mqcore"
)

// failureCode 把 kafka.Error 映射为事件总线错误名，无法识别时返回空串。
func failureCode(err error) string {
	var kerr kafka.Error
	if !errors.As(err, &kerr) {
		return ""
	}

	switch kerr.Code() {
	case kafka.ErrMsgSizeTooLarge:
		return mqcore.FailureMessageTooLarge
	case kafka.ErrUnknownTopicOrPart, kafka.ErrUnknownTopic:
		return mqcore.FailureTopicNotFound
	case kafka.ErrQueueFull:
		return mqcore.FailureQueueFull
	case kafka.ErrTopicAuthorizationFailed, kafka.ErrClusterAuthorizationFailed:
		return mqcore.FailureAccessDenied
	case kafka.ErrMsgTimedOut, kafka.ErrTimedOut, kafka.ErrRequestTimedOut:
		return mqcore.FailureTimeout
	case kafka.ErrAllBrokersDown, kafka.ErrTransport:
		return mqcore.FailureNetwork
	}

	switch {
	case kerr.IsFatal():
		return mqcore.FailureProducerClosed
	case kerr.IsRetriable():
		return mqcore.FailurePutFailed
	default:
		return ""
	}
}
