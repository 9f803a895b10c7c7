// Package xkafka 提供基于 confluent-kafka-go 的 xpublish.Sender。
//
// Sender 把 xpublish.Entry 写入 Entry.Bus 指定的 topic（为空时使用 WithDefaultTopic），
// 并等待 delivery report：
//   - Produce 同步失败（如本地队列已满）作为传输层错误返回
//   - delivery report 中的失败作为带内失败（Ack.FailureCode）返回
//
// 两者都会被映射为事件总线错误名（QueueFull、MessageTooLarge、TopicNotFound 等），
// 由 xpublish 的分类与重试逻辑决定是否重试。
//
// # 生命周期
//
// NewSender 使用调用方创建的 *kafka.Producer，Close 不会关闭它。
// Dial 自行创建 Producer，并在后台消费 Events 通道中的错误事件；
// Close 会 Flush（受 WithFlushTimeout 限制）并关闭 Producer。
package xkafka
