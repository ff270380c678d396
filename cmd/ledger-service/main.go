package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	lcache "github.com/radieske/bet-ledger-engine/internal/ledger/cache"
	"github.com/radieske/bet-ledger-engine/internal/ledger/engine"
	httpapi "github.com/radieske/bet-ledger-engine/internal/ledger/http"
	"github.com/radieske/bet-ledger-engine/internal/ledger/producer"
	"github.com/radieske/bet-ledger-engine/internal/ledger/pubsub"
	"github.com/radieske/bet-ledger-engine/internal/ledger/repo"
	"github.com/radieske/bet-ledger-engine/internal/ledger/ws"
	"github.com/radieske/bet-ledger-engine/internal/shared/cache"
	"github.com/radieske/bet-ledger-engine/internal/shared/config"
	"github.com/radieske/bet-ledger-engine/internal/shared/db"
	"github.com/radieske/bet-ledger-engine/internal/shared/kafka"
	"github.com/radieske/bet-ledger-engine/internal/shared/logger"
	"github.com/radieske/bet-ledger-engine/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required outside local", zap.String("env", cfg.Env))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// conecta com db Postgres
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx, pg); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
		log.Info("migrations applied")
	}

	// conecta com cache Redis
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Kafka: um writer para todos os tópicos do ledger
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		log.Fatal("kafka brokers not provided")
	}
	topics := producer.Topics{
		QuotaChanged: cfg.TopicQuotaChanged,
		EventChanged: cfg.TopicEventChanged,
		BetPlaced:    cfg.TopicBetPlaced,
		PrizeAwarded: cfg.TopicPrizeAwarded,
	}
	if cfg.Env == "local" || cfg.Env == "dev" {
		tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
		if err := kafka.EnsureTopics(tctx, brokers[0],
			topics.QuotaChanged, topics.EventChanged, topics.BetPlaced, topics.PrizeAwarded); err != nil {
			log.Warn("failed to create kafka topics", zap.Error(err))
		}
		tcancel()
	}
	kpub := producer.NewKafkaPublisher(kafka.NewWriter(brokers), topics, log)
	defer kpub.Close()

	quotaCache := lcache.NewQuotaCache(rdb, cfg.QuotaCacheTTL)
	broadcaster := pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)

	// métricas
	m := metrics.NewLedger(prometheus.DefaultRegisterer)

	svc := engine.New(log, repo.NewPostgres(pg),
		engine.WithNotifier(engine.Fanout{quotaCache, broadcaster, kpub}),
		engine.WithHooks(engine.Hooks{
			OnBetPlaced:       m.BetPlaced,
			OnEventTransition: m.EventTransition,
			OnPrizesAwarded:   m.PrizesAwarded,
			OnQuotaActivated:  m.QuotaActivated,
			OnError:           m.Error,
		}),
	)

	// WebSocket alimentado pelo Pub/Sub
	hub := ws.NewHub(func(*http.Request) bool { return true }, log)
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)

	verifier := auth.JWT{Secret: []byte(cfg.JWTSecret), TokenTTL: cfg.TokenTTL}
	api := httpapi.NewServer(log, svc, verifier, quotaCache, hub.HandleWS)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// sobe servidor de métricas e health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}, log)
	log.Info("metrics/health server starting", zap.String("addr", metricsSrv.Addr))

	go func() {
		log.Info("ledger-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
