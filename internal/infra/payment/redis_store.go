package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"parking-reservation/internal/pkg/config"
	"parking-reservation/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// settledTTL outlives any booking session by a wide margin.
const settledTTL = 7 * 24 * time.Hour

// deletes the lock only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisStore shares settled outcomes and in-flight locks across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Settled(ctx context.Context, key uuid.UUID) (*SettledCharge, error) {
	data, err := s.client.Get(ctx, settledKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "failed to read settled charge")
	}

	var c SettledCharge
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errs.Wrap(err, "failed to decode settled charge")
	}
	return &c, nil
}

func (s *RedisStore) Settle(ctx context.Context, key uuid.UUID, charge SettledCharge) (SettledCharge, error) {
	payload, err := json.Marshal(charge)
	if err != nil {
		return SettledCharge{}, errs.Wrap(err, "failed to encode settled charge")
	}

	stored, err := s.client.SetNX(ctx, settledKey(key), payload, settledTTL).Result()
	if err != nil {
		return SettledCharge{}, errs.Wrap(err, "failed to record settled charge")
	}
	if stored {
		return charge, nil
	}

	existing, err := s.Settled(ctx, key)
	if err != nil {
		return SettledCharge{}, err
	}
	if existing == nil {
		return SettledCharge{}, errs.Newf("settled charge for %s vanished", key)
	}
	return *existing, nil
}

func (s *RedisStore) Lock(ctx context.Context, key uuid.UUID, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return nil, false, errs.Wrap(err, "failed to acquire charge lock")
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, s.client, []string{lockKey(key)}, token).Err()
	}
	return release, true, nil
}

func settledKey(key uuid.UUID) string {
	return fmt.Sprintf("payment:settled:%s", key)
}

func lockKey(key uuid.UUID) string {
	return fmt.Sprintf("lock:payment:%s", key)
}
