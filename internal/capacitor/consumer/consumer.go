// Package consumer drains an ordered block feed into the engine, one outcome at
// a time. Per-log failures are logged and skipped; only feed failures that
// outlast the retry budget or cancellation stop the loop.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"capacitor/internal/capacitor/domain"
	"capacitor/internal/capacitor/engine"
	"capacitor/internal/capacitor/feed"
	"capacitor/internal/capacitor/metrics"
	"capacitor/pkg/platform/sentinel"
)

// Processor handles one execution outcome.
type Processor interface {
	ProcessOutcome(ctx context.Context, outcome domain.Outcome) (engine.Result, error)
}

// Stats counts what a run has processed.
type Stats struct {
	Blocks        int
	Outcomes      int
	Eligible      int
	Persisted     int
	Rejected      int
	Failed        int
	InvalidBlocks int
}

// Consumer is the single consumer of a block feed.
type Consumer struct {
	source       feed.Source
	processor    Processor
	logger       *slog.Logger
	metrics      *metrics.Metrics
	retryBackoff func() backoff.BackOff
	stats        Stats
}

type Option func(*Consumer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Consumer) {
		c.metrics = m
	}
}

// WithFeedBackoff sets the policy used when the feed returns transient errors.
func WithFeedBackoff(newBackOff func() backoff.BackOff) Option {
	return func(c *Consumer) {
		c.retryBackoff = newBackOff
	}
}

func New(source feed.Source, processor Processor, opts ...Option) (*Consumer, error) {
	if source == nil {
		return nil, errors.New("feed source is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	c := &Consumer{
		source:    source,
		processor: processor,
		logger:    slog.Default(),
		retryBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 5 * time.Minute
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "consumer")
	return c, nil
}

// Run processes blocks until the feed ends or ctx is cancelled. A drained
// finite feed returns nil.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		block, err := c.next(ctx)
		if errors.Is(err, sentinel.ErrEndOfFeed) {
			c.logger.InfoContext(ctx, "feed drained", "blocks", c.stats.Blocks)
			return nil
		}
		if errors.Is(err, sentinel.ErrInvalidInput) {
			c.stats.InvalidBlocks++
			c.logger.WarnContext(ctx, "skipping undecodable feed message", "error", err)
			if err := c.source.Ack(ctx); err != nil {
				return fmt.Errorf("ack skipped message: %w", err)
			}
			continue
		}
		if err != nil {
			return err
		}

		if err := c.processBlock(ctx, block); err != nil {
			return err
		}
		if err := c.source.Ack(ctx); err != nil {
			return fmt.Errorf("ack block %d: %w", block.Height, err)
		}
		c.stats.Blocks++
		c.metrics.ObserveBlock(block.Height)
	}
}

// Stats returns counters for the blocks processed so far.
func (c *Consumer) Stats() Stats {
	return c.stats
}

func (c *Consumer) next(ctx context.Context) (*domain.Block, error) {
	var block *domain.Block
	operation := func() error {
		var err error
		block, err = c.source.Next(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, sentinel.ErrEndOfFeed) || errors.Is(err, sentinel.ErrInvalidInput) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "feed read failed, retrying", "error", err, "retry_in", wait)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(c.retryBackoff(), ctx), notify); err != nil {
		return nil, err
	}
	return block, nil
}

func (c *Consumer) processBlock(ctx context.Context, block *domain.Block) error {
	c.logger.DebugContext(ctx, "processing block", "height", block.Height, "outcomes", len(block.Outcomes))
	for _, outcome := range block.Outcomes {
		res, err := c.processor.ProcessOutcome(ctx, outcome)
		c.record(res)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			c.report(ctx, block.Height, outcome, err)
		}
	}
	return nil
}

func (c *Consumer) record(res engine.Result) {
	c.stats.Outcomes++
	if res.Eligible {
		c.stats.Eligible++
	}
	c.stats.Persisted += res.Persisted
	c.stats.Rejected += res.Rejected
	c.stats.Failed += res.Failed
}

// report logs every per-log failure of an outcome and moves on.
func (c *Consumer) report(ctx context.Context, height uint64, outcome domain.Outcome, err error) {
	for _, e := range flatten(err) {
		var logErr *engine.LogError
		if !errors.As(e, &logErr) {
			c.logger.ErrorContext(ctx, "outcome processing failed",
				"block_height", height,
				"executor_id", outcome.ExecutorID,
				"receipt_id", outcome.ReceiptID,
				"error", e,
			)
			continue
		}
		level := slog.LevelError
		msg := "log write failed"
		if errors.Is(logErr, sentinel.ErrInvalidInput) {
			level = slog.LevelWarn
			msg = "malformed log skipped"
		}
		c.logger.Log(ctx, level, msg,
			"block_height", height,
			"executor_id", logErr.ExecutorID,
			"receipt_id", logErr.ReceiptID,
			"log_index", logErr.Index,
			"log_type", logErr.Type,
			"error", logErr.Err,
		)
	}
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
