// Package engine is the composition root of log ingestion. It owns the
// allowlist cache and the store handles, exposes outcome processing to the feed
// consumer and account addition to the control plane, and serialises access to
// the shared cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"capacitor/internal/capacitor/allowlist"
	"capacitor/internal/capacitor/domain"
	"capacitor/internal/capacitor/filter"
	"capacitor/internal/capacitor/metrics"
	"capacitor/internal/capacitor/ports"
	"capacitor/internal/capacitor/router"
	"capacitor/internal/capacitor/writer"
	"capacitor/pkg/platform/sentinel"
)

// Engine filters execution outcomes against the allowlist and persists their logs.
type Engine struct {
	// mu guards cache only. It is never held across store I/O or log decoding.
	mu    sync.Mutex
	cache *allowlist.Cache

	// addMu serialises control-plane additions so two callers cannot both pass
	// the store existence check for the same account.
	addMu sync.Mutex

	accounts ports.AllowlistStore
	writer   *writer.Writer
	seed     []string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	tracer   trace.Tracer
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithSeedAccounts pre-populates the allowlist; Load merges them with the store.
func WithSeedAccounts(ids ...string) Option {
	return func(e *Engine) {
		e.seed = append(e.seed, ids...)
	}
}

// WithClock overrides the wall clock used for cap_creation_date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New constructs an Engine. The allowlist is empty (apart from seeds) until Load
// is called.
func New(accounts ports.AllowlistStore, w *writer.Writer, opts ...Option) (*Engine, error) {
	if accounts == nil {
		return nil, errors.New("allowlist store is required")
	}
	if w == nil {
		return nil, errors.New("writer is required")
	}
	e := &Engine{
		accounts: accounts,
		writer:   w,
		logger:   slog.Default(),
		now:      time.Now,
		tracer:   otel.Tracer("capacitor/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")
	e.cache = allowlist.NewCache(e.seed...)
	return e, nil
}

// Load reads the durable allowlist and merges it into the cache together with
// the seed accounts. It must run before the engine starts processing events.
func (e *Engine) Load(ctx context.Context) error {
	ids, err := e.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("load allowlist: %w", err)
	}

	e.mu.Lock()
	e.cache.Merge(ids)
	monitored := e.cache.List()
	e.mu.Unlock()

	e.metrics.SetAllowlistSize(len(monitored))
	e.logger.InfoContext(ctx, "allowlist loaded",
		"stored", len(ids),
		"seeded", len(e.seed),
		"monitored", monitored,
	)
	return nil
}

// AddAccount durably registers accountID and makes it visible to the filter.
// It reports whether the account was newly stored; a duplicate is a no-op.
func (e *Engine) AddAccount(ctx context.Context, accountID string) (bool, error) {
	if accountID == "" {
		return false, fmt.Errorf("account id is required: %w", sentinel.ErrInvalidInput)
	}

	e.addMu.Lock()
	defer e.addMu.Unlock()

	exists, err := e.accounts.Exists(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("check account %q: %w", accountID, err)
	}
	if !exists {
		if err := e.accounts.Insert(ctx, accountID); err != nil {
			return false, fmt.Errorf("store account %q: %w", accountID, err)
		}
	}

	e.mu.Lock()
	e.cache.Add(accountID)
	size := e.cache.Len()
	e.mu.Unlock()

	e.metrics.SetAllowlistSize(size)
	if exists {
		e.logger.DebugContext(ctx, "account already monitored", "account_id", accountID)
		return false, nil
	}
	e.metrics.IncAccountsAdded()
	e.logger.InfoContext(ctx, "account added", "account_id", accountID)
	return true, nil
}

// Contains reports whether accountID is currently monitored. No I/O.
func (e *Engine) Contains(accountID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Contains(accountID)
}

// Accounts returns the monitored set in sorted order.
func (e *Engine) Accounts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.List()
}

// IsEligible reports whether outcome succeeded and comes from a monitored account.
func (e *Engine) IsEligible(outcome domain.Outcome) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return filter.IsEligible(outcome, e.cache)
}

// Result summarises what happened to the logs of one outcome.
type Result struct {
	Eligible  bool
	Persisted int
	Rejected  int
	Failed    int
}

// LogError ties a per-log failure to the outcome and position it came from.
type LogError struct {
	ExecutorID string
	ReceiptID  string
	Index      int
	Type       string
	Err        error
}

func (e *LogError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("executor %s log %d: %v", e.ExecutorID, e.Index, e.Err)
	}
	return fmt.Sprintf("executor %s log %d (%s): %v", e.ExecutorID, e.Index, e.Type, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}

// ProcessOutcome filters outcome and, if eligible, persists each of its logs in
// emission order. Malformed logs and failed writes are skipped and reported as
// joined *LogError values; processing continues with the next log. Only
// cancellation of ctx stops processing early.
func (e *Engine) ProcessOutcome(ctx context.Context, outcome domain.Outcome) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ProcessOutcome", trace.WithAttributes(
		attribute.String("capacitor.executor_id", outcome.ExecutorID),
		attribute.String("capacitor.receipt_id", outcome.ReceiptID),
	))
	defer span.End()

	e.metrics.IncOutcomesSeen()
	if !e.IsEligible(outcome) {
		return Result{}, nil
	}
	e.metrics.IncOutcomesEligible()

	res := Result{Eligible: true}
	var errs []error
	for i, raw := range outcome.Logs {
		rec, err := router.Decode(i, raw)
		if err != nil {
			e.metrics.IncLogDataErrors()
			res.Rejected++
			errs = append(errs, e.logError(outcome, i, "", err))
			continue
		}

		op := router.Route(outcome.ExecutorID, rec, e.now())
		if err := e.writer.Apply(ctx, op); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			e.metrics.IncWriteFailures()
			res.Failed++
			errs = append(errs, e.logError(outcome, i, rec.Type, err))
			continue
		}
		res.Persisted++
	}
	span.SetAttributes(
		attribute.Int("capacitor.persisted", res.Persisted),
		attribute.Int("capacitor.rejected", res.Rejected),
		attribute.Int("capacitor.failed", res.Failed),
	)
	return res, errors.Join(errs...)
}

func (e *Engine) logError(outcome domain.Outcome, index int, logType string, err error) *LogError {
	return &LogError{
		ExecutorID: outcome.ExecutorID,
		ReceiptID:  outcome.ReceiptID,
		Index:      index,
		Type:       logType,
		Err:        err,
	}
}
