package xretry_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xkyc/pkg/resilience/xretry"
)

func ExampleExecute() {
	r := xretry.NewRetryer()
	cfg := xretry.Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Jitter: xretry.JitterFull}

	var calls int
	out, err := xretry.Execute(context.Background(), r, "fetch", cfg, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset by peer")
		}
		return "payload", nil
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(out.Result, out.Attempts)
	// Output: payload 3
}

func ExampleExecute_nonRetryable() {
	r := xretry.NewRetryer()
	cfg := xretry.DefaultConfig()

	_, err := xretry.Execute(context.Background(), r, "write", cfg, func(context.Context) (int, error) {
		return 0, errors.New("AccessDenied")
	})

	var re *xretry.RetryError
	if errors.As(err, &re) {
		fmt.Println(re.Attempts, re.Classification.Category, re.Classification.Retryable)
	}
	// Output: 1 SYSTEM false
}

func ExampleBackoff() {
	b := xretry.NewBackoff(xretry.Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: xretry.JitterNone})
	for attempt := 1; attempt <= 5; attempt++ {
		fmt.Println(b.NextDelay(attempt))
	}
	// Output:
	// 100ms
	// 200ms
	// 400ms
	// 800ms
	// 1s
}

func ExampleWrap() {
	r := xretry.NewRetryer()
	cfg := xretry.Config{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	var calls int
	load := xretry.Wrap(r, "load", cfg, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("request timeout")
		}
		return 42, nil
	})

	v, err := load(context.Background())
	fmt.Println(v, err)
	// Output: 42 <nil>
}
