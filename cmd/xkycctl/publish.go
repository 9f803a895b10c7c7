package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	// 注册 blob 与 pubsub 的 URL 方案。
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/pubsub/mempubsub"

	"github.com/omeyang/xkyc/pkg/config/xconf"
	"github.com/omeyang/xkyc/pkg/mq/xpublish"
	"github.com/omeyang/xkyc/pkg/observability/xmetrics"
	"github.com/omeyang/xkyc/pkg/storage/xblob"
)

const maxLineSize = 1 << 20

// entryLine 是 JSONL 文件中的一行，detail 原样作为消息体。
type entryLine struct {
	Source     string          `json:"source"`
	DetailType string          `json:"detail_type"`
	Detail     json.RawMessage `json:"detail"`
	Bus        string          `json:"bus"`
}

// resultLine 是输出的一行。
type resultLine struct {
	Index int `json:"index"`
	xpublish.Result
}

type publishArgs struct {
	file        string
	bus         string
	url         string
	topic       string
	topicSet    bool
	concurrency int
	archive     string
	stats       bool
}

func createPublishCommand(r *root) *cli.Command {
	return &cli.Command{
		Name:    "publish",
		Aliases: []string{"p"},
		Usage:   "从 JSONL 文件批量发布事件",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "JSONL 事件文件，- 表示标准输入",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "bus",
				Aliases: []string{"b"},
				Usage:   "覆盖配置中的总线类型（kafka|pulsar|mem）",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "覆盖配置中的总线地址（pulsar URL 或 mem 总线的 URL 前缀）",
			},
			&cli.StringFlag{
				Name:  "topic",
				Usage: "覆盖配置中的默认 topic",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "每个窗口的并发数，0 使用配置值",
			},
			&cli.StringFlag{
				Name:  "archive",
				Usage: "把结果写入对象存储，如 file:///var/lib/kyc",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "结束后输出发布与重试指标",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := withTimeout(ctx, cmd)
			defer cancel()
			return r.publish(ctx, cmd.Root().Reader, cmd.Root().Writer, publishArgs{
				file:        cmd.String("file"),
				bus:         cmd.String("bus"),
				url:         cmd.String("url"),
				topic:       cmd.String("topic"),
				topicSet:    cmd.IsSet("topic"),
				concurrency: cmd.Int("concurrency"),
				archive:     cmd.String("archive"),
				stats:       cmd.Bool("stats"),
			})
		},
	}
}

func (r *root) publish(ctx context.Context, stdin io.Reader, stdout io.Writer, args publishArgs) error {
	if args.concurrency < 0 {
		return newUsageError("--concurrency must not be negative")
	}
	app, err := r.app()
	if err != nil {
		return err
	}
	if args.bus != "" {
		app.Bus.Kind = xconf.BusKind(strings.ToLower(args.bus))
	}
	if args.url != "" {
		app.Bus.URL = args.url
	}
	if args.topicSet {
		app.Bus.Topic = args.topic
	}

	entries, err := loadEntries(stdin, args.file)
	if err != nil {
		return err
	}

	logger, cleanup, err := r.logger(app.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = cleanup() }() //nolint:errcheck // 退出前关闭日志文件

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }() //nolint:errcheck // 进程即将退出
	mopts := []xmetrics.Option{
		xmetrics.WithMeterProvider(provider),
		xmetrics.WithAttributes(attribute.String("bus_kind", string(app.Bus.Kind))),
	}
	observer, err := xmetrics.NewRetryObserver(mopts...)
	if err != nil {
		return err
	}
	recorder, err := xmetrics.NewPublishRecorder(mopts...)
	if err != nil {
		return err
	}

	s, err := openSender(app.Bus, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(r.stderr, "sender", s)

	publisher, err := xpublish.New(s,
		xpublish.WithLogger(logger),
		xpublish.WithObserver(observer),
	)
	if err != nil {
		return err
	}

	results := publisher.PublishBatch(ctx, entries, app.Publish, args.concurrency)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	failed := 0
	for i, res := range results {
		bus := entries[i].Bus
		if bus == "" {
			bus = app.Bus.Topic
		}
		recorder.Record(ctx, bus, res.Success, res.Duration)
		if !res.Success {
			failed++
		}
		if err := enc.Encode(resultLine{Index: i, Result: res}); err != nil {
			return err
		}
	}
	if _, err := stdout.Write(buf.Bytes()); err != nil {
		return err
	}

	if args.archive != "" {
		if err := archiveResults(ctx, args.archive, buf.Bytes()); err != nil {
			return err
		}
	}
	if args.stats {
		if err := writeStats(context.WithoutCancel(ctx), stdout, reader); err != nil {
			return err
		}
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func loadEntries(stdin io.Reader, file string) ([]xpublish.Entry, error) {
	if file == "-" {
		return readEntries(stdin)
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // 只读文件
	return readEntries(f)
}

func readEntries(rd io.Reader) ([]xpublish.Entry, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entries []xpublish.Entry
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var l entryLine
		if err := json.Unmarshal(text, &l); err != nil {
			return nil, newUsageError("line %d: %v", line, err)
		}
		entries = append(entries, xpublish.Entry{
			Source:     l.Source,
			DetailType: l.DetailType,
			Body:       l.Detail,
			Bus:        l.Bus,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// archiveResults 把本次结果写入对象存储，key 带时间戳。
func archiveResults(ctx context.Context, url string, data []byte) error {
	store, err := xblob.Open(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }() //nolint:errcheck // 写入结果已由 Put 返回

	key := fmt.Sprintf("publish-%s.jsonl", time.Now().UTC().Format("20060102T150405.000000000"))
	return store.Put(ctx, key, data, "application/x-ndjson")
}

// writeStats 以 "# name value" 的形式输出累计指标。
func writeStats(ctx context.Context, w io.Writer, reader *sdkmetric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				fmt.Fprintf(w, "# %s %d\n", m.Name, total)
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				fmt.Fprintf(w, "# %s count=%d sum=%.3f\n", m.Name, count, sum)
			}
		}
	}
	return nil
}
