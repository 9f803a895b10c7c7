// Package xretry 提供指数退避加抖动的重试执行器。
//
// # 执行模型
//
// Execute 按 Config 执行一个操作，最多尝试 MaxRetries+1 次：
//   - 成功立即返回 Outcome{Result, Attempts, TotalDelay}
//   - 失败时通过 Classifier（默认 xfault.Classify）判断是否可重试
//   - 不可重试或已是最后一次尝试时返回 *RetryError
//   - 否则按 Backoff 计算延迟并等待，ctx 结束会中断等待
//
// 底层使用 [avast/retry-go/v5] 驱动尝试循环，xretry 只负责退避计算、
// 错误分类和事件通知。
//
// # 退避
//
// 指数延迟 exp = min(BaseDelay*2^(attempt-1), MaxDelay)，在此基础上应用抖动：
//   - none：exp
//   - full：[0, exp]
//   - equal：[exp/2, exp]
//   - decorrelated：[上一次实际延迟, exp*3]，截断到 MaxDelay
//
// 任何延迟都不会超过 MaxDelay。抖动随机数来自 crypto/rand。
//
// # 使用方式
//
//	r := xretry.NewRetryer(xretry.WithObserver(xretry.LogObserver(logger)))
//	out, err := xretry.Execute(ctx, r, "blob.put", cfg, func(ctx context.Context) (string, error) {
//	    return store.Put(ctx, key, data)
//	})
//
// 需要复用时用 Wrap 得到一个带重试的函数：
//
//	put := xretry.Wrap(r, "blob.put", cfg, putOnce)
//
// # 事件
//
// 每次尝试、每次重试决定、最终成功或失败都会通知 Observer，
// 事件携带 {operation, attempt, maxRetries, delay, errorName, errorMessage}。
// LogObserver 把事件写入 xlog，xmetrics.RetryObserver 把事件记为指标。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
