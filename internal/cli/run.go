package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"capacitor/internal/capacitor/consumer"
	"capacitor/internal/capacitor/handler"
	capmetrics "capacitor/internal/capacitor/metrics"
	"capacitor/internal/platform/httpserver"
	httpmetrics "capacitor/internal/platform/metrics"
	httptransport "capacitor/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Addr     string
	Feed     string
	FeedFile string
}

// NewRunCommand starts the feed consumer and the control plane.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Consume the block feed and serve the control plane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "control-plane listen address")
	cmd.Flags().StringVar(&opts.Feed, "feed", "", "block feed backend (kafka|redis|file)")
	cmd.Flags().StringVar(&opts.FeedFile, "feed-file", "", "JSONL block file for the file feed")

	return cmd
}

func runServe(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Feed != "" {
		cfg.Feed = opts.Feed
	}
	if opts.FeedFile != "" {
		cfg.Ingest.FeedFile = opts.FeedFile
	}
	if err := errors.Join(cfg.Validate(), cfg.ValidateServer()); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	ctx := cmd.Context()
	log := newLogger(cmd.OutOrStdout(), cfg, opts.Verbose)
	reg := newRegistry()
	ingestMetrics := capmetrics.New(reg)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "open store", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Warn("store close failed", "error", err)
		}
	}()

	eng, err := newEngine(ctx, cfg, st, log, ingestMetrics)
	if err != nil {
		return WrapExitError(ExitFailure, "load allowlist", err)
	}

	src, err := openSource(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "open feed", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("feed close failed", "error", err)
		}
	}()

	cons, err := consumer.New(src, eng,
		consumer.WithLogger(log),
		consumer.WithMetrics(ingestMetrics),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(handler.New(eng, log), httptransport.Options{
		AdminToken:    cfg.Server.AdminToken,
		JWTSigningKey: cfg.Server.JWTSigningKey,
		Gatherer:      reg,
		Metrics:       httpmetrics.New(reg),
		Logger:        log,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("capacitor starting",
		"addr", cfg.Server.Addr,
		"store", cfg.Store,
		"feed", cfg.Feed,
		"version", Version,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := cons.Run(gctx); err != nil {
			return err
		}
		stats := cons.Stats()
		log.Info("feed drained", "blocks", stats.Blocks, "persisted", stats.Persisted)
		return nil
	})
	g.Go(func() error {
		return httpserver.Serve(gctx, srv, shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "capacitor stopped", err)
	}
	log.Info("capacitor stopped")
	return nil
}
