package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xkyc/pkg/resilience/xfault"
)

// classifyOutput 是 classify 的 JSON 输出。
type classifyOutput struct {
	Category         xfault.Category `json:"category"`
	Retryable        bool            `json:"retryable"`
	HTTPStatus       int             `json:"http_status"`
	Service          xfault.Service  `json:"service"`
	Matched          string          `json:"matched"`
	UserMessage      string          `json:"user_message"`
	TechnicalMessage string          `json:"technical_message"`
}

func createClassifyCommand() *cli.Command {
	return &cli.Command{
		Name:    "classify",
		Aliases: []string{"c"},
		Usage:   "对错误名、错误码或状态码做分类",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "错误名，如 ThrottlingException"},
			&cli.StringFlag{Name: "code", Usage: "服务错误码，如 SlowDown"},
			&cli.IntFlag{Name: "status", Usage: "HTTP 状态码"},
			&cli.StringFlag{Name: "message", Usage: "错误描述"},
			&cli.StringFlag{
				Name:  "service",
				Usage: "错误码表（generic|objectstore|documentdb|notification|eventbus）",
				Value: string(xfault.ServiceGeneric),
			},
			&cli.StringSliceFlag{Name: "retryable", Usage: "可重试名称白名单，可重复"},
			&cli.BoolFlag{Name: "json", Usage: "以 JSON 输出"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			svc, ok := xfault.ParseService(cmd.String("service"))
			if !ok {
				return newUsageError("unknown service %q", cmd.String("service"))
			}
			f := xfault.Failure{
				Name:       cmd.String("name"),
				Code:       cmd.String("code"),
				HTTPStatus: cmd.Int("status"),
				Message:    cmd.String("message"),
			}
			if f.Empty() {
				return newUsageError("one of --name, --code, --status or --message is required")
			}
			c := xfault.ClassifyFailure(f,
				xfault.WithService(svc),
				xfault.WithRetryableNames(cmd.StringSlice("retryable")...),
			)
			return writeClassification(cmd.Root().Writer, c, cmd.Bool("json"))
		},
	}
}

func writeClassification(w io.Writer, c xfault.Classification, asJSON bool) error {
	out := classifyOutput{
		Category:         c.Category,
		Retryable:        c.Retryable,
		HTTPStatus:       c.HTTPStatus(),
		Service:          c.Service,
		Matched:          c.Matched,
		UserMessage:      c.UserMessage,
		TechnicalMessage: c.TechnicalMessage,
	}
	if asJSON {
		return json.NewEncoder(w).Encode(out)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "category\t%s\n", out.Category)
	fmt.Fprintf(tw, "retryable\t%t\n", out.Retryable)
	fmt.Fprintf(tw, "http_status\t%d\n", out.HTTPStatus)
	fmt.Fprintf(tw, "service\t%s\n", out.Service)
	fmt.Fprintf(tw, "matched\t%s\n", out.Matched)
	fmt.Fprintf(tw, "user_message\t%s\n", out.UserMessage)
	fmt.Fprintf(tw, "technical_message\t%s\n", out.TechnicalMessage)
	return tw.Flush()
}
