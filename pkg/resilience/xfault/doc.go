// Package xfault 提供远程调用失败的归一化与分类。
//
// # 设计理念
//
// 远程服务（对象存储、文档数据库、通知服务、事件总线）的失败形态各异：
// SDK 错误、带错误码的 API 错误、纯字符串、HTTP 状态码。xfault 先把所有形态
// 归一化为单一的 [Failure]，再由 [Classify] 映射到封闭的 [Category] 集合，
// 并给出是否可重试的判断和面向用户/技术人员的两段描述。
//
// # 分类优先级
//
// 先匹配者胜出：
//  0. 已通过 [Classified] 固定分类的错误，原样返回
//  1. 调用方提供的可重试名称白名单（[WithRetryableNames]）→ TRANSIENT，可重试
//  2. 服务专属错误码表，其次是所有服务共用的通用表
//  3. 名称/消息中的重试特征子串（throttl、timeout、network 等）→ TRANSIENT，可重试
//  4. HTTP 状态码兜底：>=500、429、403、404
//  5. 默认 SYSTEM，不可重试
//
// # 纯函数
//
// [Classify] 无副作用、确定性、全域：任何输入都会得到一个分类，绝不 panic。
// 未识别的任意值（非 error、非字符串）只记录类型名，不参与子串匹配。
//
// # 查找表
//
// 分类到 HTTP 状态码、分类到用户提示语的映射由本包持有（[Category.HTTPStatus]、
// [Category.UserMessage]），调用方无需重复维护策略。
package xfault
