// Package redis provides the storage adapter backed by a TTL-capable
// external key/value store. It is the backend for the ephemeral
// multi-instance deployment model, where no process-local state survives a
// request and all coordination happens through the store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

const keyPrefix = "tr2b"

// Config configures the redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store is a redis-backed adapter. TTLs pass through to the store's native
// expiry. Uniqueness is claimed with SETNX on an index key, a true
// conditional write: two instances racing to create the same username are
// resolved by the store, not by process-local locking.
type Store struct {
	client *goredis.Client
}

// New connects to redis and verifies the connection with a ping.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client. Intended for tests.
func NewWithClient(client *goredis.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func recordKey(collection, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, collection, key)
}

func indexKey(collection, field, value string) string {
	return fmt.Sprintf("%s:idx:%s:%s:%s", keyPrefix, collection, field, value)
}

// claimKey holds the name of the index entry a record claimed at create
// time, so Delete can release the uniqueness slot along with the record.
func claimKey(collection, key string) string {
	return fmt.Sprintf("%s:claim:%s:%s", keyPrefix, collection, key)
}

// wrap maps transport-level redis failures onto ErrUnavailable so the retry
// decorator can act on them. A missing key is never an error.
func wrap(err error) error {
	if err == nil || errors.Is(err, goredis.Nil) {
		return err
	}
	return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
}

func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, recordKey(collection, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap(err)
	}
	return data, true, nil
}

func (s *Store) FindBy(ctx context.Context, collection, field, value string) ([]byte, bool, error) {
	key, err := s.client.Get(ctx, indexKey(collection, field, value)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap(err)
	}
	return s.Get(ctx, collection, key)
}

func (s *Store) List(ctx context.Context, collection string) ([][]byte, error) {
	pattern := recordKey(collection, "*")
	var result [][]byte

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, goredis.Nil) {
			continue // expired between scan and read
		}
		if err != nil {
			return nil, wrap(err)
		}
		result = append(result, data)
	}
	if err := iter.Err(); err != nil {
		return nil, wrap(err)
	}
	return result, nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, collection, key string, unique storage.Uniqueness, data []byte, ttl time.Duration) error {
	if unique.Field == "" {
		created, err := s.client.SetNX(ctx, recordKey(collection, key), data, ttl).Result()
		if err != nil {
			return wrap(err)
		}
		if !created {
			return storage.ErrConflict
		}
		return nil
	}

	idx := indexKey(collection, unique.Field, unique.Value)

	// Claim the uniqueness slot first. SETNX guarantees exactly one
	// concurrent caller wins; the index entry shares the record's TTL so
	// the claim dies with the record.
	claimed, err := s.client.SetNX(ctx, idx, key, ttl).Result()
	if err != nil {
		return wrap(err)
	}
	if !claimed {
		// The slot may be held by an earlier attempt for this same key
		// whose record write never landed. Re-claiming it lets a retry
		// finish the create instead of reporting a false conflict.
		holder, err := s.client.Get(ctx, idx).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return wrap(err)
		}
		if holder != key {
			return storage.ErrConflict
		}
	}

	// The record and the reverse claim mapping land in one MULTI/EXEC.
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, claimKey(collection, key), idx, ttl)
	pipe.Set(ctx, recordKey(collection, key), data, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the claim so the slot is not left pointing at a record
		// that was never written. If this also fails, the re-claim path
		// above still lets a retry for the same key complete.
		s.client.Del(ctx, idx, claimKey(collection, key))
		return wrap(err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, collection, key string, data []byte, ttl time.Duration) error {
	return wrap(s.client.Set(ctx, recordKey(collection, key), data, ttl).Err())
}

// Delete removes the record and releases its uniqueness claim, if any. The
// index entry is only removed while it still points at this key, so a claim
// retaken after expiry is never torn down by a stale delete.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	claim := claimKey(collection, key)
	idx, err := s.client.Get(ctx, claim).Result()
	switch {
	case err == nil:
		holder, gerr := s.client.Get(ctx, idx).Result()
		if gerr != nil && !errors.Is(gerr, goredis.Nil) {
			return wrap(gerr)
		}
		if gerr == nil && holder == key {
			if derr := s.client.Del(ctx, idx).Err(); derr != nil {
				return wrap(derr)
			}
		}
		if derr := s.client.Del(ctx, claim).Err(); derr != nil {
			return wrap(derr)
		}
	case !errors.Is(err, goredis.Nil):
		return wrap(err)
	}
	return wrap(s.client.Del(ctx, recordKey(collection, key)).Err())
}

var _ storage.Adapter = (*Store)(nil)
