package di

import (
	"fmt"

	"Kronos/internal/domain/repository"
	"Kronos/internal/forecast"
	"Kronos/internal/handler/api"
	"Kronos/internal/kronos"
	"Kronos/internal/recorder"
	"Kronos/internal/source"
	"Kronos/internal/store"
	"Kronos/internal/syncer"
	"Kronos/internal/usecase"
	pkgcache "Kronos/pkg/cache"
	"Kronos/pkg/config"
	applogger "Kronos/pkg/logger"
	"Kronos/pkg/metrics"
	"Kronos/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Log.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Log.Format
	if format == "" {
		format = "console"
	}
	output := cfg.Log.Output
	if output == "" {
		output = "stdout"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: output})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStore creates the on-disk bar cache.
func ProvideStore(cfg *config.Config, logger *applogger.Logger) (*store.Store, error) {
	st, err := store.New(cfg.Data.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("bar store: %w", err)
	}
	return st, nil
}

// ProvideFetcher creates the multi-source bar fetcher.
func ProvideFetcher(cfg *config.Config, logger *applogger.Logger, m repository.Metrics) *source.Fetcher {
	primary := source.NewPrimary(cfg.Sources.Primary.BaseURL, cfg.Sources.Primary.Timeout)
	secondary := source.NewSecondary(
		cfg.Sources.Secondary.BaseURL,
		cfg.Sources.Secondary.UserAgent,
		cfg.Sources.Secondary.Timeout,
	)
	return source.NewFetcher(primary, secondary, logger, m)
}

// ProvideSyncEngine creates the incremental sync engine.
func ProvideSyncEngine(st *store.Store, fetcher *source.Fetcher, logger *applogger.Logger, m repository.Metrics) *syncer.Engine {
	return syncer.New(st, fetcher, logger, m)
}

// ProvidePredictor creates the forecasting model client.
func ProvidePredictor(cfg *config.Config) repository.Predictor {
	return kronos.New(cfg.Model.BaseURL, cfg.Model.Timeout, cfg.Model.MaxContext)
}

// ProvideAggregator creates the Monte Carlo aggregator.
func ProvideAggregator(p repository.Predictor, logger *applogger.Logger, m repository.Metrics, cfg *config.Config) *forecast.Aggregator {
	return forecast.NewAggregator(p, logger, m, cfg.Forecast.Workers)
}

// ProvideRecorder creates the prediction history recorder.
func ProvideRecorder(cfg *config.Config) (repository.HistoryRecorder, error) {
	if !cfg.Recorder.Enabled {
		return recorder.Noop{}, nil
	}
	path := cfg.Recorder.Path
	if path == "" {
		path = "data/predictions.db"
	}
	rec, err := recorder.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("prediction recorder: %w", err)
	}
	return rec, nil
}

// ProvideResponseCache creates the forecast response cache. Layered
// memory-over-Redis when Redis is configured, otherwise in-process memory.
func ProvideResponseCache(cfg *config.Config, logger *applogger.Logger) pkgcache.Service {
	if cfg.Forecast.Redis.Enabled {
		host, port := splitHostPort(cfg.Forecast.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Forecast.Redis.Password),
			pkgcache.WithRedisDB(cfg.Forecast.Redis.DB),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc)
		}
		logger.Warn("redis unavailable, using memory cache", applogger.Error(err))
	}
	return pkgcache.NewMemoryCache()
}

// ProvidePredictUseCase creates the forecast pipeline use case.
func ProvidePredictUseCase(
	engine *syncer.Engine,
	aggregator *forecast.Aggregator,
	rec repository.HistoryRecorder,
	m repository.Metrics,
	logger *applogger.Logger,
	respCache pkgcache.Service,
	cfg *config.Config,
) *usecase.PredictUseCase {
	margin := cfg.Forecast.BoundaryMargin
	if margin <= 0 {
		margin = forecast.DefaultBoundaryMargin
	}
	return usecase.NewPredictUseCase(
		engine, aggregator, rec, m, logger,
		respCache, cfg.Forecast.CacheTTL, cfg.Model.TopK, margin,
	)
}

// ProvideDataUseCase creates the data-maintenance use case.
func ProvideDataUseCase(engine *syncer.Engine, st *store.Store, rec repository.HistoryRecorder) *usecase.DataUseCase {
	return usecase.NewDataUseCase(engine, st, rec)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(logger *applogger.Logger, predict *usecase.PredictUseCase, data *usecase.DataUseCase) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(logger, predict, data)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handler *api.ForecastEchoHandler,
	rec repository.HistoryRecorder,
) *server.App {
	return server.New(cfg, logger, handler, rec)
}

func splitHostPort(addr string) (string, int) {
	host, port := "localhost", 6379
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			host = addr[:i]
			p := 0
			for _, ch := range addr[i+1:] {
				if ch < '0' || ch > '9' {
					return host, port
				}
				p = p*10 + int(ch-'0')
			}
			if p > 0 {
				port = p
			}
			return host, port
		}
	}
	if addr != "" {
		host = addr
	}
	return host, port
}
