package syncsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"staycal/models"
	"staycal/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisSyncChannel bridges the local hub over redis pub/sub so that
// every server instance sharing the authoritative store sees every
// committed update. Events published here come back through the
// subscription (redis delivers to the publisher too) and enter the hub
// there; the hub's version filter makes redeliveries harmless.
type RedisSyncChannel struct {
	hub     *Hub
	client  *redis.Client
	channel string
}

// NewRedisSyncChannel creates the bridge and starts its relay loop.
func NewRedisSyncChannel(client *redis.Client, channel string) *RedisSyncChannel {
	c := &RedisSyncChannel{
		hub:     NewHub(),
		client:  client,
		channel: channel,
	}
	go c.relay()
	return c
}

// Publish notifies the local hub directly, then sends the event over
// redis for the other instances. Going through the hub first means
// local subscribers never depend on the relay being connected; the
// loopback copy redis delivers back is dropped by the version filter.
// ErrSyncUnavailable tells the caller to retry the remote leg only.
func (c *RedisSyncChannel) Publish(ctx context.Context, event models.SlotEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode slot event: %w", err)
	}
	_ = c.hub.Publish(ctx, event)
	if err := c.client.Publish(ctx, c.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s failed: %v: %w", c.channel, err, ErrSyncUnavailable)
	}
	return nil
}

// Subscribe registers a local observer.
func (c *RedisSyncChannel) Subscribe() *Subscription {
	return c.hub.Subscribe()
}

// Forget clears this instance's version floors for pruned date-keys.
func (c *RedisSyncChannel) Forget(keys ...string) {
	c.hub.Forget(keys...)
}

// relay pumps remote publishes into the local hub, reconnecting with
// backoff on failure. Subscribers keep their last-known state across a
// gap; the version filter discards anything stale once the stream
// resumes.
func (c *RedisSyncChannel) relay() {
	logger := utils.GetLogger()
	ctx := context.Background()
	backoff := time.Second

	for {
		pubsub := c.client.Subscribe(ctx, c.channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			logger.Warn("Sync channel subscribe failed, retrying",
				zap.String("channel", c.channel), zap.Duration("backoff", backoff), zap.Error(err))
			_ = pubsub.Close()
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		logger.Info("Sync channel connected", zap.String("channel", c.channel))

		for msg := range pubsub.Channel() {
			var event models.SlotEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Error("Discarding malformed slot event", zap.Error(err))
				continue
			}
			_ = c.hub.Publish(ctx, event)
		}

		// Channel closed means the connection dropped.
		_ = pubsub.Close()
		logger.Warn("Sync channel disconnected, reconnecting", zap.String("channel", c.channel))
	}
}
