// Package storage 提供经过重试调度的存储子包。
//
// 子包列表：
//   - xblob: 基于 gocloud.dev/blob 的对象存储
//   - xmongo: MongoDB 集合写入与读取
//
// 两者都通过 xretry.Execute 执行 SDK 调用，并使用对应服务的错误码表分类。
package storage
