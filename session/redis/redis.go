package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/session"
)

const (
	keyPrefix  = "newsagent:session:"
	lockPrefix = "newsagent:session-lock:"
)

// unlockScript deletes the lock only when it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store keeps session state as JSON documents in redis.
type Store struct {
	rdb     *redis.Client
	ttl     time.Duration // 0 keeps keys forever
	lockTTL time.Duration
	poll    time.Duration
}

var _ session.Store = (*Store)(nil)

func NewStore(rdb *redis.Client, ttl, lockTTL time.Duration) *Store {
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl, lockTTL: lockTTL, poll: 25 * time.Millisecond}
}

func (s *Store) Get(ctx context.Context, key string) (session.State, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.State{Messages: []models.Message{}}, nil
	}
	if err != nil {
		return session.State{}, fmt.Errorf("get session: %w", err)
	}
	var st session.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return session.State{}, fmt.Errorf("decode session: %w", err)
	}
	if st.Messages == nil {
		st.Messages = []models.Message{}
	}
	return st, nil
}

// Update is a read-merge-write; callers serialize it with Lock.
func (s *Store) Update(ctx context.Context, key string, patch session.Patch) error {
	cur, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(patch.Apply(cur))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, keyPrefix+key).Err()
}

func (s *Store) ClearAll(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

// Lock polls SET NX PX until acquired or ctx ends.
func (s *Store) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := lockPrefix + key
	for {
		ok, err := s.rdb.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, session.ErrLockTimeout
			}
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, session.ErrLockTimeout
		case <-time.After(s.poll):
		}
	}
	return func() {
		// release even when the turn's ctx is already cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = unlockScript.Run(rctx, s.rdb, []string{lockKey}, token).Err()
	}, nil
}
