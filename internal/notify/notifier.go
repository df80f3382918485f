// Package notify announces finished loads on a Redis pub/sub channel so
// downstream jobs (dashboards, aggregations) can react without polling.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vvka-141/transitload/pkg/transitload"
)

// EventLoadCompleted is the event name carried by every published message.
const EventLoadCompleted = "load.completed"

// Message is the JSON payload published after a run.
type Message struct {
	Event       string                  `json:"event"`
	Records     int64                   `json:"records"`
	FailedFiles int                     `json:"failed_files"`
	Summary     *transitload.RunSummary `json:"summary"`
}

// RedisNotifier publishes run summaries with PUBLISH.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
	logger  transitload.Logger
}

var _ transitload.Notifier = (*RedisNotifier)(nil)

// NewRedisNotifier connects to the server named by a redis:// URL and
// publishes on transitload.NotificationChannel.
func NewRedisNotifier(redisURL string, logger transitload.Logger) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w: %w", transitload.ErrInvalidConfig, err)
	}
	return NewRedisNotifierWithClient(redis.NewClient(opts), transitload.NotificationChannel, logger), nil
}

// NewRedisNotifierWithClient wraps an existing client.
// Panics if client or logger is nil.
func NewRedisNotifierWithClient(client redis.UniversalClient, channel string, logger transitload.Logger) *RedisNotifier {
	if client == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

// Notify publishes the summary. Delivery is fire-and-forget: a message with
// no subscribers is dropped by Redis and is not an error.
func (n *RedisNotifier) Notify(ctx context.Context, summary *transitload.RunSummary) error {
	msg := Message{
		Event:   EventLoadCompleted,
		Records: summary.TotalRecords(),
		Summary: summary,
	}
	for _, c := range summary.Categories {
		msg.FailedFiles += c.FailedFiles()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}

	receivers, err := n.client.Publish(ctx, n.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	n.logger.Verbose("Published run %s to %s (%d subscriber(s))", summary.RunID, n.channel, receivers)
	return nil
}

// Close releases the client's connections.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
