// Package writer applies routed log writes to the document store, retrying
// transient failures with bounded exponential backoff.
package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"capacitor/internal/capacitor/domain"
	"capacitor/internal/capacitor/metrics"
	"capacitor/internal/capacitor/ports"
	"capacitor/pkg/platform/sentinel"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultMaxRetries      = 3
	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
)

// Writer issues one document write at a time.
type Writer struct {
	store           ports.DocumentStore
	timeout         time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
	metrics         *metrics.Metrics
	tracer          trace.Tracer
}

type Option func(*Writer)

// WithTimeout bounds each individual write attempt.
func WithTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n uint64) Option {
	return func(w *Writer) {
		w.maxRetries = n
	}
}

// WithBackoff overrides the retry intervals.
func WithBackoff(initial, max time.Duration) Option {
	return func(w *Writer) {
		w.initialInterval = initial
		w.maxInterval = max
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Writer) {
		w.metrics = m
	}
}

func New(store ports.DocumentStore, opts ...Option) (*Writer, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	w := &Writer{
		store:           store,
		timeout:         defaultTimeout,
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		tracer:          otel.Tracer("capacitor/writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Apply performs op, retrying transient errors. Errors wrapping
// sentinel.ErrRejected and cancellation of ctx stop retries immediately.
func (w *Writer) Apply(ctx context.Context, op domain.WriteOp) error {
	ctx, span := w.tracer.Start(ctx, "writer.Apply", trace.WithAttributes(
		attribute.String("capacitor.namespace", op.Namespace),
		attribute.String("capacitor.collection", op.Collection),
		attribute.String("capacitor.mode", string(op.Mode)),
	))
	defer span.End()

	start := time.Now()
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			w.metrics.IncWriteRetries()
		}
		err := w.write(ctx, op)
		if err == nil {
			return nil
		}
		if errors.Is(err, sentinel.ErrRejected) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(w.newBackOff(), w.maxRetries), ctx))
	w.metrics.ObserveWrite(string(op.Mode), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("%s %s.%s after %d attempt(s): %w", op.Mode, op.Namespace, op.Collection, attempt, err)
	}
	w.metrics.IncLogsPersisted(string(op.Mode))
	return nil
}

func (w *Writer) write(ctx context.Context, op domain.WriteOp) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	switch op.Mode {
	case domain.ModeUpsert:
		return w.store.UpsertByCapID(ctx, op.Namespace, op.Collection, op.CapID, op.Document)
	case domain.ModeInsert:
		return w.store.InsertOne(ctx, op.Namespace, op.Collection, op.Document)
	default:
		return fmt.Errorf("unknown write mode %q: %w", op.Mode, sentinel.ErrRejected)
	}
}

func (w *Writer) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.initialInterval
	b.MaxInterval = w.maxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
