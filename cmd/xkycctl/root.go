package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/omeyang/xkyc/pkg/config/xconf"
	"github.com/omeyang/xkyc/pkg/mq/xkafka"
	"github.com/omeyang/xkyc/pkg/mq/xpublish"
	"github.com/omeyang/xkyc/pkg/mq/xpubsub"
	"github.com/omeyang/xkyc/pkg/mq/xpulsar"
	"github.com/omeyang/xkyc/pkg/observability/xlog"
)

// root 组合根：配置只加载一次，由各命令共享。
type root struct {
	app    func() (xconf.App, error)
	stderr io.Writer
}

func (r *root) bind(configPath string, stderr io.Writer) {
	r.stderr = stderr
	r.app = sync.OnceValues(func() (xconf.App, error) {
		if configPath == "" {
			return xconf.DefaultApp(), nil
		}
		return xconf.LoadAppFile(configPath)
	})
}

// logger 按配置创建日志器，未配置文件时写到命令的 stderr。
func (r *root) logger(cfg xlog.Config) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.FromConfig(cfg)
	if cfg.File == "" {
		b.SetOutput(r.stderr)
	}
	return b.Build()
}

// sender 是可关闭的 xpublish.Sender。
type sender interface {
	xpublish.Sender
	Close() error
}

// openSender 按总线类型创建 Sender。
func openSender(bus xconf.Bus, logger xlog.Logger) (sender, error) {
	switch bus.Kind {
	case xconf.BusKafka:
		s, err := xkafka.Dial(&kafka.ConfigMap{"bootstrap.servers": bus.Brokers},
			xkafka.WithDefaultTopic(bus.Topic),
			xkafka.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	case xconf.BusPulsar:
		s, err := xpulsar.Dial(bus.URL,
			xpulsar.WithDefaultTopic(bus.Topic),
			xpulsar.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	case xconf.BusMem:
		prefix := bus.URL
		if prefix == "" {
			prefix = "mem://"
		}
		s, err := xpubsub.NewSender(xpubsub.URLOpener(prefix),
			xpubsub.WithDefaultTopic(bus.Topic),
			xpubsub.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, newUsageError("unknown bus kind %q", bus.Kind)
	}
}

func closeQuietly(w io.Writer, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		fmt.Fprintf(w, "close %s: %v\n", name, err)
	}
}
