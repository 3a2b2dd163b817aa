package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/engine"
	gcache "github.com/radieske/prediction-market-poc/internal/game-service/cache"
	ghttp "github.com/radieske/prediction-market-poc/internal/game-service/http"
	"github.com/radieske/prediction-market-poc/internal/game-service/producer"
	"github.com/radieske/prediction-market-poc/internal/game-service/ws"
	sharedcache "github.com/radieske/prediction-market-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	skafka "github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Redis: cache de diretório + pub/sub do WebSocket
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Um writer Kafka por tópico de notificação
	writers := map[engine.NotificationKind]*kafkago.Writer{
		engine.NotifGameCreated:   skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameCreated),
		engine.NotifBetPlaced:     skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
		engine.NotifGameFinalized: skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameFinalized),
		engine.NotifPrizeClaimed:  skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPrizeClaimed),
		engine.NotifPoolFunded:    skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolFunded),
	}
	defer func() {
		for _, w := range writers {
			_ = w.Close()
		}
	}()

	// Métricas Prometheus de publicação de eventos
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "game_events_published_total", Help: "eventos publicados por tópico",
	}, []string{"topic"})
	pubErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "game_events_publish_errors_total", Help: "erros de publicação por estágio",
	}, []string{"stage"})
	prometheus.MustRegister(published, pubErrors)

	publ := &producer.GameEventPublisher{
		Log:         log,
		Writers:     writers,
		Rdb:         rdb,
		Channel:     cfg.RedisPubSubChannel,
		OnPublished: func(topic string) { published.WithLabelValues(topic).Inc() },
		OnError:     func(stage string) { pubErrors.WithLabelValues(stage).Inc() },
	}

	// Core: banco em memória + registry com taxa de criação
	feePercent, err := strconv.ParseInt(cfg.RegistryFeePercent, 10, 64)
	if err != nil {
		log.Fatal("invalid REGISTRY_FEE_PERCENT", zap.String("value", cfg.RegistryFeePercent))
	}
	bank := engine.NewMemBank()
	registry, err := engine.NewRegistry(cfg.RegistryOwner, feePercent, bank, publ)
	if err != nil {
		log.Fatal("registry init", zap.Error(err))
	}

	// Hub WebSocket alimentado pelo canal de broadcast do Redis
	hub := ws.NewHub(func(_ *http.Request) bool { return true })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)

	api := &ghttp.Server{
		Log:      log,
		Bank:     bank,
		Registry: registry,
		Dir:      gcache.New(rdb),
		Hub:      hub,
	}

	// metrics/health em porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	addr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("game-service listening",
		zap.String("addr", addr),
		zap.String("registryOwner", cfg.RegistryOwner),
		zap.Int64("feePercent", feePercent),
	)
	srv := &http.Server{Addr: addr, Handler: api.Router()}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
