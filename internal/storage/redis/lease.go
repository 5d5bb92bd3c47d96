package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryAcquire takes the named lease for ttl. It returns a nil release func if
// someone else holds it. The lease lapses on its own after ttl.
func (s *Store) TryAcquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	key := leaseKey(name)
	token := s.random.ID()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, s.client, []string{key}, token).Err()
	}, nil
}
