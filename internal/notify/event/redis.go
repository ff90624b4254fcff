// Package event publishes account lifecycle events on Redis Pub/Sub.
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify"
)

// DefaultChannel is where participant activations are announced.
const DefaultChannel = "channel-participant"

// publishClient is the slice of *redis.Client used here.
type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher JSON-encodes lifecycle messages and PUBLISHes them.
type RedisPublisher struct {
	client  publishClient
	channel string
	log     *zap.SugaredLogger
}

func NewRedisPublisher(client *redis.Client, channel string, logger *zap.SugaredLogger) *RedisPublisher {
	return newRedisPublisher(client, channel, logger)
}

func newRedisPublisher(client publishClient, channel string, logger *zap.SugaredLogger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RedisPublisher{client: client, channel: channel, log: logger}
}

func (p *RedisPublisher) PublishActivated(ctx context.Context, msg notify.ParticipantMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode participant message: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	// Pub/Sub has no delivery guarantee; zero receivers is not an error.
	p.log.Infow("participant event published", "channel", p.channel, "account_id", msg.AccountID, "receivers", receivers)
	return nil
}

// NoopPublisher drops events. Used when REDIS_URL is empty.
type NoopPublisher struct{}

func (NoopPublisher) PublishActivated(ctx context.Context, msg notify.ParticipantMessage) error {
	return nil
}

var (
	_ notify.Publisher = (*RedisPublisher)(nil)
	_ notify.Publisher = NoopPublisher{}
)
