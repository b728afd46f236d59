package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"capacitor/internal/capacitor/domain"
	"capacitor/pkg/platform/sentinel"
)

// RedisPayloadField is the stream entry field carrying the encoded block.
const RedisPayloadField = "block"

const redisReadCount = 16

// RedisStream consumes blocks from a Redis stream through a consumer group.
// On start it first drains entries delivered to this consumer but never
// acknowledged, then reads new entries.
type RedisStream struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	block    time.Duration

	cursor  string
	pending []redis.XMessage
	lastID  string
}

// NewRedisStream ensures the consumer group exists and returns a source.
func NewRedisStream(ctx context.Context, client *redis.Client, stream, group, consumer string, block time.Duration) (*RedisStream, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group %s on %s: %w", group, stream, err)
	}
	return &RedisStream{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		block:    block,
		cursor:   "0",
	}, nil
}

func (r *RedisStream) Next(ctx context.Context) (*domain.Block, error) {
	for len(r.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.read(ctx); err != nil {
			return nil, err
		}
	}

	msg := r.pending[0]
	r.pending = r.pending[1:]
	r.lastID = msg.ID

	payload, ok := msg.Values[RedisPayloadField].(string)
	if !ok {
		return nil, fmt.Errorf("entry %s: missing %q field: %w", msg.ID, RedisPayloadField, sentinel.ErrInvalidInput)
	}
	block, err := DecodeBlock([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", msg.ID, err)
	}
	return block, nil
}

func (r *RedisStream) read(ctx context.Context) error {
	args := &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, r.cursor},
		Count:    redisReadCount,
		Block:    r.block,
	}
	if r.cursor != ">" {
		// Pending entries are returned immediately.
		args.Block = -1
	}

	streams, err := r.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("read stream %s: %w", r.stream, err)
	}

	n := 0
	for _, s := range streams {
		r.pending = append(r.pending, s.Messages...)
		n += len(s.Messages)
	}
	if r.cursor != ">" && n == 0 {
		r.cursor = ">"
	}
	return nil
}

// Ack acknowledges the last delivered entry.
func (r *RedisStream) Ack(ctx context.Context) error {
	if r.lastID == "" {
		return nil
	}
	if err := r.client.XAck(ctx, r.stream, r.group, r.lastID).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", r.lastID, err)
	}
	r.lastID = ""
	return nil
}

func (r *RedisStream) Close() error {
	return nil
}

// Publish appends a block to a stream in the format RedisStream reads.
func Publish(ctx context.Context, client *redis.Client, stream string, block domain.Block) (string, error) {
	payload, err := EncodeBlock(block)
	if err != nil {
		return "", err
	}
	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{RedisPayloadField: string(payload)},
	}).Result()
}
