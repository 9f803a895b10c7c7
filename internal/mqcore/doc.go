// Package mqcore 提供消息总线 Sender 的共享核心功能。
//
// 本包是 internal 包，仅供 xkafka、xpulsar 和 xpubsub 包内部使用。
//
// 主要功能：
//   - 共享错误定义（"mq:" 前缀，由各 Sender 包重导出）
//   - Entry 到消息头的映射
//   - 目标总线解析
//   - TopicCache：按 topic 缓存生产者句柄，基于 golang-lru；句柄以 Lease 借出，淘汰后待归还再关闭
//   - 带内失败码映射
package mqcore
