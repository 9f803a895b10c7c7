// Package xblob 提供经过重试调度的对象存储读写。
//
// Store 基于 gocloud.dev/blob，驱动由 URL 方案决定（mem://、file://、s3://、gs:// 等），
// 调用方需空白导入对应驱动包。Put、Get、Exists、Delete 都通过 xretry.Execute 执行，
// 并使用对象存储错误码表（xfault.ServiceObjectStore）分类。
//
// gcerrors 错误码映射为对象存储错误名：NotFound 为 NoSuchKey，ResourceExhausted 为 SlowDown，
// DeadlineExceeded 为 RequestTimeout，Internal 为 InternalError。
package xblob
