package snapshot

import (
	"context"
	"errors"

	"ghrepostats/internal/platform/logger"
)

// Cache is the typed view over a Store used by the stats service
type Cache struct {
	store Store
}

// NewCache wraps store
func NewCache(store Store) *Cache { return &Cache{store: store} }

// Stars loads the star snapshot; a missing or stale document yields an empty one
func (c *Cache) Stars(ctx context.Context, key Key) (Stars, error) {
	b, err := c.store.Load(ctx, key)
	if err != nil || b == nil {
		return Stars{}, err
	}
	s, err := DecodeStars(b)
	if errors.Is(err, ErrStale) {
		logger.C(ctx).Info().Err(err).Str("key", key.String()).Msg("discarding cached snapshot")
		return Stars{}, nil
	}
	return s, err
}

// SaveStars encodes and stores s
func (c *Cache) SaveStars(ctx context.Context, key Key, s Stars) error {
	b, err := EncodeStars(s)
	if err != nil {
		return err
	}
	return c.store.Save(ctx, key, b)
}

// Issues loads the issue snapshot; a missing or stale document yields an empty one
func (c *Cache) Issues(ctx context.Context, key Key) (Issues, error) {
	b, err := c.store.Load(ctx, key)
	if err != nil || b == nil {
		return Issues{}, err
	}
	s, err := DecodeIssues(b)
	if errors.Is(err, ErrStale) {
		logger.C(ctx).Info().Err(err).Str("key", key.String()).Msg("discarding cached snapshot")
		return Issues{}, nil
	}
	return s, err
}

// SaveIssues encodes and stores s
func (c *Cache) SaveIssues(ctx context.Context, key Key, s Issues) error {
	b, err := EncodeIssues(s)
	if err != nil {
		return err
	}
	return c.store.Save(ctx, key, b)
}

// Close closes the underlying store
func (c *Cache) Close() error { return c.store.Close() }
