package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/deployment-recorder/recorder"
	drepo "github.com/radieske/prediction-market-poc/internal/deployment-recorder/repo"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/db"
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

	// Postgres para registros de deployment e logs append-only
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Consumer do tópico game_created (consumer group deployment-recorder)
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicGameCreated, "deployment-recorder")
	defer reader.Close()

	var dlq *kafkago.Writer
	if cfg.TopicGameCreatedDLQ != "" {
		dlq = skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameCreatedDLQ)
		defer dlq.Close()
	}

	// Métricas Prometheus do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deploy_rec_messages_consumed_total", Help: "mensagens consumidas",
	})
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deploy_rec_deployments_total", Help: "deployments gravados por status",
	}, []string{"status"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deploy_rec_errors_total", Help: "erros por estágio",
	}, []string{"stage"})
	prometheus.MustRegister(consumed, recorded, errorsBy)

	rec := &recorder.Recorder{
		Log:             log,
		Reader:          reader,
		Repo:            drepo.NewPostgres(pg),
		DLQ:             dlq,
		NetworkID:       cfg.NetworkID,
		CompilerVersion: cfg.CompilerVersion,
		OnConsumed:      func() { consumed.Inc() },
		OnRecorded:      func(status string) { recorded.WithLabelValues(status).Inc() },
		OnError:         func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("deployment-recorder-worker started", zap.String("consume", cfg.TopicGameCreated))
	if err := rec.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("recorder stopped with error", zap.Error(err))
	}
	log.Info("deployment-recorder-worker stopped")
}
