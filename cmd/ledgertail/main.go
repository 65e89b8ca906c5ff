// ledgertail 消费账本的通知与事件主题并打印到标准输出，
// 用于开发排查与手续费审计抽查。
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/tokenledger/pkg/config"
	"github.com/wyfcoding/tokenledger/pkg/logger"
	"github.com/wyfcoding/tokenledger/pkg/mq"
)

var configPath = flag.String("config", "configs/ledger/config.toml", "config file path")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logger.Level,
		Format: "text",
		Output: "stdout",
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	if !cfg.Kafka.Enabled {
		slog.Error("kafka is disabled in config, nothing to tail")
		os.Exit(1)
	}

	mqCfg := mq.Config{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID + "-tail",
	}
	topics := []string{cfg.Kafka.TransferTopic, cfg.Kafka.FeeTopic, cfg.Kafka.EventTopic}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		consumer := mq.NewConsumer(mqCfg, topic)
		defer consumer.Close()

		topic := topic
		g.Go(func() error {
			slog.Info("tailing topic", "topic", topic)
			return consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error {
				fmt.Printf("[%s] key=%s %s\n", topic, key, value)
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		slog.Error("consumer exited with error", "error", err)
	}
}
