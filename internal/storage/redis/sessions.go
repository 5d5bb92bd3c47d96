package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsarena/internal/model"
)

// SaveSession stores the session until its expiry. Sessions that have
// already expired are not written.
func (s *Store) SaveSession(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.Token), data, ttl).Err()
}

func (s *Store) GetSession(ctx context.Context, token string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInvalidSession
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}
