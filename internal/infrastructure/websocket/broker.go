package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"campusmart/pkg/logger"
)

// Fan-out targets
const (
	TargetAll  = "all"
	TargetRoom = "room"
	TargetUser = "user"
)

// DefaultChannel is the Redis channel shared by every server instance.
const DefaultChannel = "campusmart:realtime"

// Envelope is an already encoded frame plus who should get it. ExceptConn
// skips one connection, typically the one that caused the event.
type Envelope struct {
	Kind       string          `json:"kind"`
	Target     string          `json:"target,omitempty"`
	ExceptConn string          `json:"except_conn,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// Broker moves envelopes between server instances. Every instance,
// including the publisher, receives each envelope exactly once through the
// function given to Subscribe and delivers it to its own connections.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe registers deliver and returns once the subscription is live.
	// Delivery stops when ctx is done.
	Subscribe(ctx context.Context, deliver func(Envelope)) error
	Ping(ctx context.Context) error
	Name() string
}

// LocalBroker delivers in-process. It serves single-instance deployments and tests.
type LocalBroker struct {
	mu      sync.RWMutex
	deliver func(Envelope)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Publish(ctx context.Context, env Envelope) error {
	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()

	if deliver != nil {
		deliver(env)
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, deliver func(Envelope)) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		b.deliver = nil
		b.mu.Unlock()
	}()
	return nil
}

func (b *LocalBroker) Ping(ctx context.Context) error { return nil }

func (b *LocalBroker) Name() string { return "local" }

// RedisBroker relays envelopes over Redis pub/sub so rooms span instances.
type RedisBroker struct {
	client  *redis.Client
	channel string
}

func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{
		client:  client,
		channel: channel,
	}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, deliver func(Envelope)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()

		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					logger.Warn("WebSocket: dropping malformed envelope from redis: %v", err)
					continue
				}
				deliver(env)

			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("WebSocket: subscribed to redis channel %s", b.channel)
	return nil
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Name() string { return "redis" }
