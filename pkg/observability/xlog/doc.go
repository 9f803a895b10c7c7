// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
// 使用 Builder（first-error-wins：遇到第一个配置错误后，后续 Set 操作被跳过）：
//
//	logger, cleanup, err := xlog.New().
//	    SetLevel(xlog.LevelDebug).
//	    SetFormat("json").
//	    SetRotation("/var/log/xkyc/app.log", xlog.Rotation{MaxSizeMB: 100}).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// 也可以直接从配置构建：xlog.FromConfig(cfg).Build()。
//
// # 属性
//
// 所有方法只接受 slog.Attr。attrs.go 中定义了重试和发布场景的标准字段，
// 如 [Operation]、[Attempt]、[Delay]、[Category]、[MessageID]。
//
// # 动态级别
//
// Build 返回 LoggerWithLevel，可在运行时调用 SetLevel，派生 logger 同步生效。
//
// # 轮转
//
// [Builder.SetRotation] 使用 gopkg.in/natefinch/lumberjack.v2 按大小轮转日志文件，
// cleanup 函数负责关闭文件。
package xlog
