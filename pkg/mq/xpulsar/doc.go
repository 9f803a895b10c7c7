// Package xpulsar 提供基于 apache/pulsar-client-go 的 xpublish.Sender。
//
// Sender 按 topic 懒创建 Producer，并缓存在容量有限的 LRU 中（WithMaxProducers），
// 被淘汰的 Producer 在所有进行中的发送结束后关闭。Producer 返回 ProducerClosed 时从缓存移除，
// 并以可重试的 PutFailed 返回，下一次尝试会重新创建。
//
// 每条消息携带 kyc-source、kyc-detail-type 和 kyc-message-id 属性，
// kyc-message-id 是发送前生成的 UUID，可用于消费端去重。
//
// MessageTooBig、TopicNotFound、鉴权失败作为带内失败（Ack.FailureCode）返回，
// 其余发送错误作为传输层错误返回，二者都带有事件总线错误名。
package xpulsar
