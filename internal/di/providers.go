package di

import (
	"context"
	"fmt"
	"time"

	"snowroll/internal/domain/repository"
	"snowroll/internal/handler/api"
	internalrepo "snowroll/internal/repository"
	"snowroll/internal/service/calendar"
	"snowroll/internal/service/ratelimit"
	"snowroll/internal/service/yahoo"
	"snowroll/internal/usecase"
	"snowroll/pkg/cache"
	pkgch "snowroll/pkg/clickhouse"
	"snowroll/pkg/config"
	pkgkafka "snowroll/pkg/kafka"
	applogger "snowroll/pkg/logger"
	"snowroll/pkg/metrics"
	"snowroll/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLimiter creates the shared request rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideMarketDataProvider creates the Yahoo chart API client.
func ProvideMarketDataProvider(cfg *config.Config, limiter *ratelimit.Limiter, log *applogger.Logger) repository.MarketDataProvider {
	return yahoo.New(
		cfg.Provider.BaseURL,
		cfg.Provider.Timeout,
		limiter,
		cfg.Provider.RequestsPerSec,
		cfg.Provider.Burst,
		log,
	)
}

// ProvideCalendar creates the trading calendar from configured exchanges.
func ProvideCalendar(cfg *config.Config) (repository.TradingCalendar, error) {
	svc, err := calendar.New(cfg.Calendar.Exchanges, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	return svc, nil
}

// ProvideCoverageStore creates and loads the coverage metadata store.
func ProvideCoverageStore(cfg *config.Config, log *applogger.Logger) (*internalrepo.CoverageStore, error) {
	store := internalrepo.NewCoverageStore(cfg.Storage.Root, cfg.Symbols(), log)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("coverage store: %w", err)
	}
	return store, nil
}

// ProvideClickHouseClient connects to ClickHouse when it is the configured
// slice backend; otherwise no client is needed.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Storage.Backend != "clickhouse" {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	table := cfg.ClickHouse.Database + ".bars_1m"
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.NewClickHouseSliceStore(client.DB(), table).Schema()...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSliceStore selects the slice backend from config.
func ProvideSliceStore(cfg *config.Config, chClient *pkgch.Client) (repository.SliceStore, error) {
	switch cfg.Storage.Backend {
	case "clickhouse":
		if chClient == nil {
			return nil, fmt.Errorf("clickhouse backend selected but no client available")
		}
		return internalrepo.NewClickHouseSliceStore(chClient.DB(), cfg.ClickHouse.Database+".bars_1m"), nil
	default:
		return internalrepo.NewFileSliceStore(cfg.Storage.Root), nil
	}
}

// ProvideEventPublisher creates the Kafka ingestion event publisher, or a
// no-op when events are disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return internalrepo.NopEventPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression("snappy"),
		pkgkafka.WithRequiredAcks(1),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic), nil
}

// ProvideCache selects the cache backend for coverage API reads.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return provideRedisCache(cfg)
	case "layered":
		remote, err := provideRedisCache(cfg)
		if err != nil {
			return nil, err
		}
		return cache.NewLayered(cache.NewMemory(), remote), nil
	default:
		return cache.NewMemory(), nil
	}
}

func provideRedisCache(cfg *config.Config) (cache.Service, error) {
	r, err := cache.NewRedis(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix("snowroll"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return r, nil
}

// ProvideEngine creates the ingestion engine over the configured watchlist.
func ProvideEngine(
	cfg *config.Config,
	provider repository.MarketDataProvider,
	cal repository.TradingCalendar,
	slices repository.SliceStore,
	coverage *internalrepo.CoverageStore,
	publisher repository.EventPublisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Engine {
	return usecase.NewEngine(
		usecase.WatchlistFromConfig(cfg),
		provider,
		cal,
		slices,
		coverage,
		publisher,
		m,
		log,
		usecase.Options{
			RetentionDays:    cfg.Provider.RetentionDays,
			SpanDays:         cfg.Provider.SpanDays,
			SafetyMarginDays: cfg.Provider.SafetyMarginDays,
		},
	)
}

// ProvideHandler creates the coverage API handler.
func ProvideHandler(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.Engine,
	coverage *internalrepo.CoverageStore,
	c cache.Service,
) *api.CoverageEchoHandler {
	return api.NewCoverageEchoHandler(log, engine, coverage, c, cfg.Cache.TTL)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.Engine,
	publisher repository.EventPublisher,
	chClient *pkgch.Client,
	handler *api.CoverageEchoHandler,
) *server.App {
	app := server.New(cfg, log, engine, publisher, chClient)
	app.SetHTTPHandler(handler)
	return app
}
