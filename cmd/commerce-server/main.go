package main

import (
	"fmt"
	"time"

	"github.com/go-zookeeper/zk"

	"mycommerce/internal/pkg/bootstrap"
	"mycommerce/internal/pkg/logger"
	"mycommerce/internal/pkg/mq"
	redispkg "mycommerce/internal/pkg/redis"
	"mycommerce/internal/service/commerce/application"
	"mycommerce/internal/service/commerce/domain/port"
	"mycommerce/internal/service/commerce/infrastructure"
	"mycommerce/internal/service/commerce/infrastructure/adapter"
	"mycommerce/internal/service/commerce/interfaces"
)

func main() {
	if err := bootstrap.Init(); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := bootstrap.GetCurrentConfig()
	logger.Init(cfg.App.ServiceName)
	log := logger.Logger()

	db, err := infrastructure.NewMysqlDB(cfg.Infra.MysqlDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mysql")
	}

	txm := infrastructure.NewGormTransactionManager(db)
	productRepo := infrastructure.NewGormProductRepository(db)
	orderRepo := infrastructure.NewGormOrderRepository(db)
	userRepo := infrastructure.NewGormUserRepository(db)

	lockClient := buildLockClient(cfg)

	// 订单事件通知端：WebSocket 实时推送，Kafka 供下游异步消费
	hub := interfaces.NewPushHub()
	notifiers := adapter.MultiNotifier{hub}
	if len(cfg.Infra.KafkaBrokers) > 0 {
		writer := mq.NewWriter(cfg.Infra.KafkaBrokers, cfg.Infra.KafkaOrderTopic)
		notifiers = append(notifiers, adapter.NewOrderKafkaAdapter(writer))
	} else {
		log.Warn().Msg("kafka brokers not configured, order events will not be published")
	}

	stockService := application.NewStockService(productRepo, lockClient, txm)
	orderService := application.NewOrderService(
		orderRepo, productRepo, userRepo, stockService, txm,
		adapter.MockPaymentAdapter{}, notifiers,
		cfg.App.Order.RestoreStockOnFailure,
	)
	productService := application.NewProductService(productRepo, txm)

	handler := interfaces.NewHandler(orderService, productService, hub)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: cfg.App.ServiceName,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}

// buildLockClient 按配置选择分布式锁实现
func buildLockClient(cfg *bootstrap.Config) port.LockClient {
	log := logger.Logger()

	switch cfg.App.Lock.Provider {
	case "zookeeper":
		conn, _, err := zk.Connect(cfg.Infra.ZookeeperAddrs, 5*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect zookeeper")
		}
		log.Info().Strs("addrs", cfg.Infra.ZookeeperAddrs).Msg("using zookeeper distributed lock")
		return adapter.NewZookeeperLockAdapter(conn)
	case "memory":
		// 仅限单实例部署，跨进程不提供互斥
		log.Warn().Msg("using in-memory lock, not safe for multi-instance deployments")
		return adapter.NewMemoryLockAdapter()
	default:
		client, err := redispkg.NewClient(cfg.Infra.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		lock, err := adapter.NewRedisLockAdapter(client)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize redis lock")
		}
		log.Info().Str("addr", cfg.Infra.RedisAddr).Msg("using redis distributed lock")
		return lock
	}
}
