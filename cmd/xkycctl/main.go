// xkycctl 是 KYC 事件发布与重试策略的命令行工具。
//
// 用法:
//
//	xkycctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   配置文件路径（yaml/json），缺省使用内置默认值
//	-t, --timeout  整个命令的超时时间，0 表示不限制
//
// 命令:
//
//	publish        从 JSONL 文件批量发布事件，逐行输出结果
//	classify       对一个错误名/错误码/状态码做分类
//	backoff        打印一组重试配置对应的等待时间
//
// 退出码:
//
//	0: 成功
//	1: 执行失败，或 publish 中至少一条事件发布失败
//	2: 参数错误
//
// 示例:
//
//	xkycctl -c kyc.yaml publish -f events.jsonl
//	xkycctl publish --bus mem -f - < events.jsonl
//	xkycctl classify --name ThrottlingException
//	xkycctl classify --code SlowDown --service objectstore
//	xkycctl backoff --jitter equal --base 200ms --max 5s --retries 4
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// createApp 创建 CLI 应用。
func createApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	r := &root{}
	return &cli.Command{
		Name:      "xkycctl",
		Usage:     "KYC 事件发布与重试策略工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "命令超时时间，0 表示不限制",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			r.bind(cmd.String("config"), stderr)
			return ctx, nil
		},
		Commands: []*cli.Command{
			createPublishCommand(r),
			createClassifyCommand(),
			createBackoffCommand(),
		},
		// 退出码统一由 run 映射，不让 urfave/cli 直接调用 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

// run 执行命令并返回退出码。
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := createApp(stdin, stdout, stderr)

	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 与 flag 包产生的参数错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, p := range []string{
		"flag provided but not defined",
		"invalid value",
		"Required flag",
		"No help topic",
		"flag needs an argument",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
