// Package xmongo 提供经过重试调度的 MongoDB 集合写入。
//
// Store 包装一个 *mongo.Collection，InsertOne、ReplaceOne、FindOne
// 都通过 xretry.Execute 执行，并使用文档数据库错误码表（xfault.ServiceDocumentDB）分类：
// WriteConflict、NotWritablePrimary、网络超时等会重试，
// DuplicateKey、DocumentValidationFailure、NoMatchingDocument 不会。
//
// # 超时兜底
//
// 调用方 context 没有 deadline 时，单次操作使用 WithOpTimeout 设置的兜底超时（默认 30 秒）。
// 已设置 deadline 的 context 不受影响。
//
// # 错误
//
// 驱动错误被包装为 *xfault.Error，Failure.Name 取服务端 codeName
// （如 "WriteConflict"），原始错误可通过 errors.Is/As 取得。
// 终止错误为 *xretry.RetryError。
package xmongo
