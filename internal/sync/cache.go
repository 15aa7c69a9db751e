// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package sync

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/metrics"
	"github.com/yksingh/codenotify/internal/models"
)

const syncedKeyPrefix = "synced:"

// StalenessCache remembers when each platform was last synced so routine
// sync cycles can skip platforms whose data is still fresh. Entries carry a
// TTL; an expired or missing entry means the platform is stale. Backed by
// BadgerDB so freshness survives restarts, or purely in-memory when no path
// is configured.
type StalenessCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenStalenessCache opens the cache described by cfg. An empty path selects
// Badger's in-memory mode.
func OpenStalenessCache(cfg config.CacheConfig) (*StalenessCache, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open staleness cache: %w", err)
	}

	ttl := cfg.StalenessTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StalenessCache{db: db, ttl: ttl}, nil
}

// IsFresh reports whether the platform was synced within the TTL.
func (c *StalenessCache) IsFresh(platform models.Platform) bool {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(syncedKeyPrefix + string(platform)))
		return err
	})
	if err != nil {
		metrics.CacheMisses.WithLabelValues("staleness").Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues("staleness").Inc()
	return true
}

// MarkSynced records a successful sync for the platform. The entry expires
// after the configured TTL.
func (c *StalenessCache) MarkSynced(platform models.Platform, at time.Time) error {
	return c.db.Update(func(txn *badger.Txn) error {
		key := []byte(syncedKeyPrefix + string(platform))
		val := []byte(strconv.FormatInt(at.Unix(), 10))
		return txn.SetEntry(badger.NewEntry(key, val).WithTTL(c.ttl))
	})
}

// LastSynced returns the recorded sync time for the platform, if the entry
// has not expired.
func (c *StalenessCache) LastSynced(platform models.Platform) (time.Time, bool) {
	var at time.Time
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(syncedKeyPrefix + string(platform)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sec, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return err
			}
			at = time.Unix(sec, 0).UTC()
			return nil
		})
	})
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// Invalidate drops the freshness entry for the platform. Used by forced
// syncs so the next routine cycle fetches again regardless of TTL.
func (c *StalenessCache) Invalidate(platform models.Platform) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(syncedKeyPrefix + string(platform)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close releases the underlying Badger database.
func (c *StalenessCache) Close() error {
	return c.db.Close()
}
