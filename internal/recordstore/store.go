// Package recordstore persists feature records between runs.
//
// Records are addressed by a slash-separated key, normally
// "<species>/<photo name without extension>". Every store reports when a
// record was saved so callers can compare it with the photo's modification
// time.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ironsheep/leafmetrics/internal/config"
	"github.com/ironsheep/leafmetrics/internal/features"
)

// ErrNotFound is returned by Load when no record exists for a key.
var ErrNotFound = errors.New("record not found")

// Store loads and saves feature records.
type Store interface {
	// Load returns the record for key and the time it was saved.
	Load(ctx context.Context, key string) (*features.Record, time.Time, error)

	// Save stores rec under key.
	Save(ctx context.Context, key string, rec *features.Record) error

	// Keys lists every stored key in lexical order.
	Keys(ctx context.Context) ([]string, error)

	Close() error
}

// Open creates the store selected by cfg.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "file", "":
		return NewFileStore(cfg.Dir)
	case "redis":
		return NewRedisStore(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// checkKey rejects keys that are empty or escape the store.
func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return fmt.Errorf("invalid record key %q", key)
	}
	return nil
}
