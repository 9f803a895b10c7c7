// Package xpublish 提供带重试、超时和批量并发控制的事件发布。
//
// # 单条发布
//
// PublishOne 把一条 Entry 交给 Sender 发送：
//   - 每次尝试都与 Config.Timeout 赛跑，超时视为 TRANSIENT 失败（分类固定，不再重新分类）
//   - 通过 xretry 按 Config.Retry 重试，分类使用 eventbus 错误码表
//   - Sender 返回的 Ack.FailureCode 非空表示带内失败（传输成功但总线拒绝），
//     同样经过分类后决定重试或终止
//   - 终止时返回 *PublishError，携带分类、实际重试次数和最后一次底层错误
//
// # 批量发布
//
// PublishBatch 按并发上限把 entries 切成固定大小的窗口，窗口内并发发布，
// 整个窗口结束后才开始下一个窗口。它从不返回错误：单条失败记为
// Result{Success:false, FailureReason: ...}，输出顺序与输入一致。
//
// # 投递语义
//
// 至少一次。超时后原调用的结果被丢弃，重试可能造成重复投递，消费方需幂等。
//
// # 生命周期
//
// Publisher 无全局状态，由调用方在组合根创建并注入；Sender 的生命周期由调用方管理。
package xpublish
