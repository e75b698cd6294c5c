package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"turista/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisKey is the list holding the reservation log.
const DefaultRedisKey = "turista-reservations"

// appendScript pushes ARGV[2] onto KEYS[1] unless ARGV[1] is already in the id set KEYS[2].
var appendScript = redis.NewScript(`
if redis.call("SADD", KEYS[2], ARGV[1]) == 0 then
	return 0
end
redis.call("RPUSH", KEYS[1], ARGV[2])
return 1
`)

// RedisStore keeps the reservation log as a Redis list of JSON documents.
// Ids are tracked in a companion set, <key>:ids, so appends reject duplicates.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zerolog.Logger
}

// NewRedisStore uses key (DefaultRedisKey when empty) on client.
func NewRedisStore(client *redis.Client, key string, logger *zerolog.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, logger: logger}
}

func (s *RedisStore) Load(ctx context.Context) ([]models.Reservation, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	out := make([]models.Reservation, 0, len(raw))
	for i, item := range raw {
		var r models.Reservation
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, &PersistenceError{Op: "load", Err: fmt.Errorf("decode entry %d: %w", i, err)}
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) Append(ctx context.Context, r *models.Reservation) error {
	data, err := json.Marshal(r)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	added, err := appendScript.Run(ctx, s.client, []string{s.key, s.idsKey()}, r.ID, data).Int()
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	if added == 0 {
		return &PersistenceError{Op: "append", Err: fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)}
	}
	if s.logger != nil {
		s.logger.Debug().Str("key", s.key).Str("id", r.ID).Msg("reservation appended to redis")
	}
	return nil
}

func (s *RedisStore) idsKey() string {
	return s.key + ":ids"
}

func (s *RedisStore) PingContext(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
