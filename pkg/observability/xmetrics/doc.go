// Package xmetrics 把重试和发布过程记录为 OpenTelemetry 指标。
//
// # 使用示例
//
//	obs, err := xmetrics.NewRetryObserver(xmetrics.WithMeterProvider(mp))
//	if err != nil {
//		return err
//	}
//	r := xretry.NewRetryer(xretry.WithObserver(obs))
//
// # 指标命名
//
// 重试：
//   - xkyc.retry.attempts：每次尝试 +1，属性 operation
//   - xkyc.retry.outcomes：每次执行结束 +1，属性 operation / outcome / category
//   - xkyc.retry.delay：每次重试前的等待（秒），属性 operation / category
//
// 发布：
//   - xkyc.publish.results：每条发布结果 +1，属性 bus / outcome
//   - xkyc.publish.duration：成功发布的单条耗时（秒），属性 bus / outcome
//
// 未指定 MeterProvider 时使用 otel.GetMeterProvider()。WithAttributes 设置的属性附加在每个测量上。
package xmetrics
