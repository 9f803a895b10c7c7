// Package xconf 加载 KYC 服务的配置文件，基于 koanf 实现。
//
// # 格式
//
//   - YAML（推荐）：.yaml, .yml
//   - JSON：.json
//
// New 按扩展名识别格式，NewFromBytes 需显式指定格式（适用于 K8s ConfigMap）。
//
// # 服务配置
//
// LoadApp 在默认值之上解码 App：
//
//	bus:
//	  kind: kafka
//	  brokers: localhost:9092
//	  topic: kyc-events
//	publish:
//	  timeout: 5s
//	  concurrency: 5
//	  retry:
//	    max_retries: 3
//	    base_delay: 200ms
//	    max_delay: 5s
//	    jitter: full
//	log:
//	  level: info
//	  format: json
//
// 时长字段接受 time.ParseDuration 格式，jitter 与 level 通过 UnmarshalText 解析。
// 未出现在文件中的字段保留 DefaultApp 的值。
//
// # 并发安全
//
// Reload 解析成功后原子替换 koanf 实例，失败时保留旧配置。
// Client 返回当前快照，Reload 之后旧指针仍可用但数据已过期。
package xconf
