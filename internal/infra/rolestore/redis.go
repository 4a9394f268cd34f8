package rolestore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"membership-app/internal/infra/logging"

	"github.com/redis/go-redis/v9"
)

type RedisBackend struct {
	client  *redis.Client
	channel string
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, channel: EventRoleChanged}
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoRole
	}
	return v, err
}

func (r *RedisBackend) SetPair(ctx context.Context, primaryKey, legacyKey, value string, ttl time.Duration) (string, error) {
	var prev *redis.StringCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		prev = p.Get(ctx, primaryKey)
		p.Set(ctx, primaryKey, value, ttl)
		p.Set(ctx, legacyKey, value, ttl)
		return nil
	})
	// a missing previous value surfaces as redis.Nil from the GET
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	if prev == nil || prev.Err() != nil {
		return "", nil
	}
	return prev.Val(), nil
}

func (r *RedisBackend) Publish(ctx context.Context, ev RoleChanged) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *RedisBackend) Listen(ctx context.Context, fn func(RoleChanged)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("role channel closed")
			}
			var ev RoleChanged
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logging.Log.Warn().Err(err).Msg("bad roleChanged payload")
				continue
			}
			fn(ev)
		}
	}
}
