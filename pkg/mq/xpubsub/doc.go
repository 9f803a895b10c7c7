// Package xpubsub 提供基于 gocloud.dev/pubsub 的 xpublish.Sender。
//
// Entry.Bus 与 URL 前缀拼接后交给 pubsub.OpenTopic，例如前缀 "mem://" 加上
// Bus "kyc" 打开 "mem://kyc"。具体驱动由调用方通过空白导入注册
// （gocloud.dev/pubsub/mempubsub、gcppubsub、awssnssqs 等）。
//
// 打开的 Topic 缓存在 LRU 中，被淘汰或 Close 后，待进行中的发送结束再调用 Shutdown。
// 已 Shutdown 的 Topic 发送失败时从缓存移除，并以可重试的 PutFailed 返回。
// gcerrors 错误码映射为事件总线错误名：NotFound、InvalidArgument、
// PermissionDenied 作为带内失败，其余作为传输层错误。
package xpubsub
