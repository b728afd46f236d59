package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"capacitor/internal/capacitor/engine"
	"capacitor/internal/capacitor/feed"
	capmetrics "capacitor/internal/capacitor/metrics"
	"capacitor/internal/capacitor/ports"
	"capacitor/internal/capacitor/store/memory"
	mongostore "capacitor/internal/capacitor/store/mongo"
	pgstore "capacitor/internal/capacitor/store/postgres"
	"capacitor/internal/capacitor/writer"
	"capacitor/internal/platform/config"
	"capacitor/internal/platform/kafka"
	"capacitor/internal/platform/logger"
	"capacitor/internal/platform/mongo"
	"capacitor/internal/platform/postgres"
	"capacitor/internal/platform/redis"
	liststrings "capacitor/pkg/platform/strings"
)

// loadConfig reads the environment and applies global flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.Store != "" {
		cfg.Store = opts.Store
	}
	if len(opts.Allow) > 0 {
		cfg.Ingest.AllowedAccounts = liststrings.Dedupe(append(cfg.Ingest.AllowedAccounts, opts.Allow...))
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Config, verbose bool) *slog.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.New(w, level)
}

// stores holds the opened store backends and how to release them.
type stores struct {
	accounts  ports.AllowlistStore
	documents ports.DocumentStore
	closers   []func(context.Context) error
}

func (s *stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Store {
	case config.StoreMongo:
		client, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &stores{
			accounts:  mongostore.NewAllowlist(client),
			documents: mongostore.NewDocuments(client),
			closers:   []func(context.Context) error{client.Disconnect},
		}, nil
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			accounts:  pgstore.NewAllowlist(pool),
			documents: pgstore.NewDocuments(pool),
			closers: []func(context.Context) error{func(context.Context) error {
				pool.Close()
				return nil
			}},
		}, nil
	case config.StoreMemory:
		return &stores{
			accounts:  memory.NewAllowlist(),
			documents: memory.NewDocuments(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// openSource connects the configured block feed.
func openSource(ctx context.Context, cfg config.Config) (feed.Source, error) {
	switch cfg.Feed {
	case config.FeedKafka:
		client, err := kafka.NewConsumer(ctx, cfg.Kafka)
		if err != nil {
			return nil, err
		}
		return feed.NewKafka(client), nil
	case config.FeedRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		src, err := feed.NewRedisStream(ctx, client.Client, cfg.Redis.Stream, cfg.Redis.Group, cfg.Redis.Consumer, cfg.Redis.BlockTimeout)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &closingSource{Source: src, close: client.Close}, nil
	case config.FeedFile:
		src, err := feed.OpenFile(cfg.Ingest.FeedFile)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown feed %q", cfg.Feed)
	}
}

// closingSource releases the connection a source was built on.
type closingSource struct {
	feed.Source
	close func() error
}

func (s *closingSource) Close() error {
	return errors.Join(s.Source.Close(), s.close())
}

// newEngine builds and loads the engine on top of st.
func newEngine(ctx context.Context, cfg config.Config, st *stores, log *slog.Logger, m *capmetrics.Metrics) (*engine.Engine, error) {
	w, err := writer.New(st.documents,
		writer.WithTimeout(cfg.Ingest.WriteTimeout),
		writer.WithRetries(cfg.Ingest.WriteRetries),
		writer.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(st.accounts, w,
		engine.WithLogger(log),
		engine.WithMetrics(m),
		engine.WithSeedAccounts(cfg.Ingest.AllowedAccounts...),
	)
	if err != nil {
		return nil, err
	}
	if err := eng.Load(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

// newRegistry builds the process registry with runtime collectors attached.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
