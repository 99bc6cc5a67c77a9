package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"terracurve/internal/metrics"
	"terracurve/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StreamWriter is the part of *redis.Client used by RedisPublisher.
type StreamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamReader is the part of *redis.Client used by Consumer.
type StreamReader interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// RedisPublisher appends events to a Redis stream as {"data": <json>}.
type RedisPublisher struct {
	client StreamWriter
	stream string
	maxLen int64
}

func NewRedisPublisher(client StreamWriter, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, maxLen: 10000}
}

func (p *RedisPublisher) Publish(ctx context.Context, e models.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	metrics.RecordEvent("redis", err)
	if err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", p.stream, err)
	}
	return nil
}

// DecodeMessage extracts the event carried by a stream message.
func DecodeMessage(m redis.XMessage) (models.Event, error) {
	var e models.Event
	data, ok := m.Values["data"].(string)
	if !ok {
		return e, fmt.Errorf("message %s has no data field", m.ID)
	}
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return e, fmt.Errorf("message %s: %w", m.ID, err)
	}
	return e, nil
}

// Consumer reads events from a stream through a consumer group.
type Consumer struct {
	client StreamReader
	stream string
	group  string
	name   string
	batch  int64
	block  time.Duration
	log    *zap.Logger
}

func NewConsumer(client StreamReader, stream, group, name string, log *zap.Logger) *Consumer {
	return &Consumer{
		client: client,
		stream: stream,
		group:  group,
		name:   name,
		batch:  10,
		block:  5 * time.Second,
		log:    log,
	}
}

// Run delivers batches to handle until ctx is cancelled. Messages are
// acknowledged only after handle succeeds; undecodable messages are logged
// and acknowledged so they do not block the group.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, []models.Event) error) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for ctx.Err() == nil {
		if err := c.Poll(ctx, handle); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("stream poll failed", zap.String("stream", c.stream), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
	return nil
}

// Poll reads and handles a single batch.
func (c *Consumer) Poll(ctx context.Context, handle func(context.Context, []models.Event) error) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.stream, ">"},
		Count:    c.batch,
		Block:    c.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	var (
		batch []models.Event
		ids   []string
	)
	for _, s := range streams {
		for _, m := range s.Messages {
			ids = append(ids, m.ID)
			e, err := DecodeMessage(m)
			if err != nil {
				c.log.Warn("dropping undecodable event", zap.Error(err))
				continue
			}
			batch = append(batch, e)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if len(batch) > 0 {
		if err := handle(ctx, batch); err != nil {
			return fmt.Errorf("handling %d events: %w", len(batch), err)
		}
	}
	return c.client.XAck(ctx, c.stream, c.group, ids...).Err()
}
