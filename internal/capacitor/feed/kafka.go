package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"capacitor/internal/capacitor/domain"
	"capacitor/pkg/platform/sentinel"
)

const kafkaPollRecords = 64

// KafkaClient is the subset of *kgo.Client the source uses.
type KafkaClient interface {
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	Close()
}

// Kafka consumes blocks from a topic through a consumer group. Block order is
// preserved within a partition; a single-partition topic gives a total order.
type Kafka struct {
	client KafkaClient
	buf    []*kgo.Record
	last   *kgo.Record
	// fetch errors seen alongside records, reported once those records drain
	deferred error
}

// NewKafka wraps a client created with auto-commit disabled.
func NewKafka(client KafkaClient) *Kafka {
	return &Kafka{client: client}
}

func (k *Kafka) Next(ctx context.Context) (*domain.Block, error) {
	for len(k.buf) == 0 {
		if err := k.deferred; err != nil {
			k.deferred = nil
			return nil, err
		}
		fetches := k.client.PollRecords(ctx, kafkaPollRecords)
		if fetches.IsClientClosed() {
			return nil, sentinel.ErrEndOfFeed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Polled records are never redelivered by the client, so they are
		// buffered before any partition error is considered.
		k.buf = append(k.buf, fetches.Records()...)
		var errs []error
		fetches.EachError(func(topic string, partition int32, err error) {
			errs = append(errs, fmt.Errorf("fetch %s[%d]: %w", topic, partition, err))
		})
		if len(errs) > 0 {
			k.deferred = errors.Join(errs...)
		}
	}

	rec := k.buf[0]
	k.buf = k.buf[1:]
	k.last = rec

	block, err := DecodeBlock(rec.Value)
	if err != nil {
		return nil, fmt.Errorf("record %s[%d]@%d: %w", rec.Topic, rec.Partition, rec.Offset, err)
	}
	return block, nil
}

// Ack commits the offset of the last delivered record.
func (k *Kafka) Ack(ctx context.Context) error {
	if k.last == nil {
		return nil
	}
	if err := k.client.CommitRecords(ctx, k.last); err != nil {
		return fmt.Errorf("commit %s[%d]@%d: %w", k.last.Topic, k.last.Partition, k.last.Offset, err)
	}
	k.last = nil
	return nil
}

func (k *Kafka) Close() error {
	k.client.Close()
	return nil
}
