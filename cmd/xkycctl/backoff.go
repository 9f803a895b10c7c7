package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xkyc/pkg/resilience/xretry"
)

func createBackoffCommand() *cli.Command {
	def := xretry.DefaultConfig()
	return &cli.Command{
		Name:    "backoff",
		Aliases: []string{"b"},
		Usage:   "打印重试等待时间序列",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "jitter", Usage: "抖动策略（none|full|equal|decorrelated）", Value: string(def.Jitter)},
			&cli.DurationFlag{Name: "base", Usage: "基础延迟", Value: def.BaseDelay},
			&cli.DurationFlag{Name: "max", Usage: "单次延迟上限", Value: def.MaxDelay},
			&cli.IntFlag{Name: "retries", Usage: "重试次数", Value: def.MaxRetries},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			jitter, err := xretry.ParseJitter(cmd.String("jitter"))
			if err != nil {
				return newUsageError("%v", err)
			}
			retries := cmd.Int("retries")
			if retries < 0 {
				return newUsageError("--retries must not be negative")
			}

			b := xretry.NewBackoff(xretry.Config{
				MaxRetries: retries,
				BaseDelay:  cmd.Duration("base"),
				MaxDelay:   cmd.Duration("max"),
				Jitter:     jitter,
			})

			tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "retry\tdelay\tceiling")
			var total time.Duration
			for attempt := 1; attempt <= retries; attempt++ {
				d := b.NextDelay(attempt)
				total += d
				fmt.Fprintf(tw, "%d\t%s\t%s\n", attempt, d, b.Exponential(attempt))
			}
			fmt.Fprintf(tw, "total\t%s\t\n", total)
			return tw.Flush()
		},
	}
}
