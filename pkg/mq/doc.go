// Package mq 提供事件发布相关的子包。
//
// 子包列表：
//   - xpublish: 可靠发布器，单条发布带超时与重试，批量发布按窗口并发且保序
//   - xkafka: 基于 confluent-kafka-go 的 Sender
//   - xpulsar: 基于 pulsar-client-go 的 Sender
//   - xpubsub: 基于 gocloud.dev/pubsub 的 Sender，支持 mem:// 等 URL 方案
//
// 内部包：
//   - internal/mqcore: 各 Sender 共享的消息头、topic 句柄缓存和失败码
//
// 各 Sender 把总线拒绝（消息过大、topic 不存在、无权限）作为带内失败返回，
// 由 xpublish 统一分类和重试。
package mq
