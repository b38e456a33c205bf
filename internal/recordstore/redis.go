package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ironsheep/leafmetrics/internal/features"
	"github.com/ironsheep/leafmetrics/internal/measure"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every record key.
	Prefix string

	// TTL expires records; zero keeps them forever.
	TTL time.Duration
}

// RedisStore keeps records as JSON values in redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// envelope wraps a record with its save time.
type envelope struct {
	SavedAt time.Time       `json:"saved_at"`
	Record  json.RawMessage `json:"record"`
}

func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) Load(ctx context.Context, key string) (*features.Record, time.Time, error) {
	if err := checkKey(key); err != nil {
		return nil, time.Time{}, err
	}
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("failed to get record: %w", err)
	}
	return decodeEnvelope(key, data)
}

func decodeEnvelope(key string, data []byte) (*features.Record, time.Time, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, time.Time{}, fmt.Errorf("record %s: %w", key, &measure.InvalidInputError{What: "record", Err: err})
	}
	rec, err := features.DecodeRecord(env.Record)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("record %s: %w", key, err)
	}
	return rec, env.SavedAt, nil
}

func encodeEnvelope(rec *features.Record, at time.Time) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{SavedAt: at, Record: data})
}

func (s *RedisStore) Save(ctx context.Context, key string, rec *features.Record) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := encodeEnvelope(rec, time.Now())
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return s.client.Set(ctx, s.key(key), data, s.ttl).Err()
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
