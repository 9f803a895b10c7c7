package mqcore

import "github.com/omeyang/xkyc/pkg/mq/xpublish"

// 消息头名称。
const (
	HeaderSource     = "kyc-source"
	HeaderDetailType = "kyc-detail-type"
	HeaderMessageID  = "kyc-message-id"
)

// Headers 把 Entry 的标签映射为消息头。空值不写入。
func Headers(e xpublish.Entry, messageID string) map[string]string {
	h := make(map[string]string, 3)
	if e.Source != "" {
		h[HeaderSource] = e.Source
	}
	if e.DetailType != "" {
		h[HeaderDetailType] = e.DetailType
	}
	if messageID != "" {
		h[HeaderMessageID] = messageID
	}
	return h
}

// Topic 返回消息的目标 topic：优先使用 Entry.Bus，否则使用 fallback。
func Topic(e xpublish.Entry, fallback string) (string, error) {
	if e.Bus != "" {
		return e.Bus, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrEmptyBus
}
