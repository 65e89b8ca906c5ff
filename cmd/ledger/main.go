package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/tokenledger/internal/ledger/application"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/identity"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/messaging"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/persistence/memory"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/persistence/mysql"
	httpserver "github.com/wyfcoding/tokenledger/internal/ledger/interfaces/http"
	"github.com/wyfcoding/tokenledger/pkg/cache"
	"github.com/wyfcoding/tokenledger/pkg/config"
	"github.com/wyfcoding/tokenledger/pkg/db"
	"github.com/wyfcoding/tokenledger/pkg/idgen"
	"github.com/wyfcoding/tokenledger/pkg/logger"
	"github.com/wyfcoding/tokenledger/pkg/metrics"
	"github.com/wyfcoding/tokenledger/pkg/middleware"
	"github.com/wyfcoding/tokenledger/pkg/mq"
)

var configPath = flag.String("config", "configs/ledger/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	if err := idgen.Init(1); err != nil {
		slog.Error("failed to init id generator", "error", err)
		os.Exit(1)
	}

	// 3. 指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("ledger")
		go m.ExposeHTTP(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 4. 存储
	var (
		stats      domain.StatRepository
		balances   domain.BalanceRepository
		exemptions domain.ExemptionRepository
		uow        domain.UnitOfWork
		registry   identity.Registry
	)
	switch cfg.Database.Driver {
	case "memory":
		store := memory.NewStore()
		stats = store
		balances = store.Balances()
		exemptions = store.Exemptions()
		uow = store
		registry = store
		slog.Warn("using in-memory storage, state will not survive restarts")
	default:
		gdb, err := db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       cfg.Database.MaxOpenConns,
			MaxIdleConns:       cfg.Database.MaxIdleConns,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		})
		if err != nil {
			slog.Error("failed to connect database", "error", err)
			os.Exit(1)
		}

		// Auto Migrate (仅用于开发方便)
		if cfg.Environment == "dev" {
			if err := gdb.AutoMigrate(
				&domain.TokenStat{}, &domain.Balance{}, &domain.Exemption{}, &identity.Identity{},
			); err != nil {
				slog.Error("failed to migrate database", "error", err)
			}
		}

		stats = mysql.NewStatRepository(gdb)
		balances = mysql.NewBalanceRepository(gdb)
		exemptions = mysql.NewExemptionRepository(gdb)
		uow = mysql.NewUnitOfWork(gdb)
		registry = identity.NewMySQLRegistry(gdb)
	}

	// 5. 消息
	var (
		notifier domain.Notifier       = domain.NopNotifier{}
		events   domain.EventPublisher = domain.NopEventPublisher{}
	)
	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(mq.Config{
			Brokers:      cfg.Kafka.Brokers,
			GroupID:      cfg.Kafka.GroupID,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		defer producer.Close()

		kafkaNotifier := messaging.NewKafkaNotifier(producer, messaging.Topics{
			Transfer: cfg.Kafka.TransferTopic,
			Fee:      cfg.Kafka.FeeTopic,
			Event:    cfg.Kafka.EventTopic,
		})
		notifier = kafkaNotifier
		events = kafkaNotifier
	}

	// 6. 查询缓存
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			slog.Error("failed to init redis", "error", err)
			os.Exit(1)
		}
	}

	// 7. 领域与应用服务
	ledger := domain.NewLedger(
		stats, balances, exemptions,
		identity.ContextAuthorizer{}, registry, notifier,
		cfg.Ledger.ContractOwner,
	)
	querySvc := application.NewLedgerQueryService(stats, balances, redisCache)
	commandSvc := application.NewLedgerCommandService(ledger, stats, uow, events, m, querySvc)
	svc := application.NewLedgerService(commandSvc, querySvc)

	// 8. 接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logging())
	if m != nil {
		r.Use(middleware.Metrics(m))
	}

	handler := httpserver.NewLedgerHandler(svc, registry)
	handler.RegisterRoutes(r.Group("/api"))

	// 9. 启动与优雅关闭
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down server...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
