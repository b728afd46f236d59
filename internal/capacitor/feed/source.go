// Package feed provides ordered sources of blocks for the ingestion consumer.
//
// A Source delivers blocks one at a time in feed order. After the consumer has
// finished with the block returned by Next it calls Ack, which lets durable
// sources (Kafka, Redis streams) advance their committed position. Sources only
// fetch when asked for the next block, so a slow consumer applies backpressure
// to the upstream feed.
package feed

import (
	"context"

	"capacitor/internal/capacitor/domain"
)

// Source is an ordered event feed.
//
// Next returns sentinel.ErrEndOfFeed once a finite feed is drained. A payload
// that cannot be decoded is reported as an error wrapping
// sentinel.ErrInvalidInput; the source has already moved past it and the
// consumer may Ack and continue.
type Source interface {
	Next(ctx context.Context) (*domain.Block, error)
	// Ack acknowledges the delivery most recently returned by Next.
	Ack(ctx context.Context) error
	Close() error
}
