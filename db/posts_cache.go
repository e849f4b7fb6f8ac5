package db

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"posts-api/models"
)

const postsCacheKey = "posts"

func postCacheKey(id int64) string {
	return "post:" + strconv.FormatInt(id, 10)
}

// CachedPostStore is a read-through Redis cache in front of another Posts.
// Reads that fail against Redis fall through to the wrapped store; writes
// drop the list key and the post key after the wrapped store succeeds.
type CachedPostStore struct {
	next   Posts
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedPostStore(next Posts, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedPostStore {
	return &CachedPostStore{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "posts_cache").Logger(),
	}
}

func (c *CachedPostStore) List(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if c.load(ctx, postsCacheKey, &posts) {
		return posts, nil
	}

	posts, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, postsCacheKey, posts)
	return posts, nil
}

func (c *CachedPostStore) GetByID(ctx context.Context, id int64) (models.Post, error) {
	key := postCacheKey(id)

	var post models.Post
	if c.load(ctx, key, &post) {
		return post, nil
	}

	post, err := c.next.GetByID(ctx, id)
	if err != nil {
		return models.Post{}, err
	}

	c.store(ctx, key, post)
	return post, nil
}

func (c *CachedPostStore) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	post, err := c.next.Create(ctx, in)
	if err != nil {
		return models.Post{}, err
	}

	c.invalidate(ctx, post.ID)
	return post, nil
}

func (c *CachedPostStore) Update(ctx context.Context, id int64, in models.PostInput) (models.Post, error) {
	post, err := c.next.Update(ctx, id, in)
	if err != nil {
		return models.Post{}, err
	}

	c.invalidate(ctx, id)
	return post, nil
}

func (c *CachedPostStore) Remove(ctx context.Context, id int64) (models.Post, error) {
	post, err := c.next.Remove(ctx, id)
	if err != nil {
		return models.Post{}, err
	}

	c.invalidate(ctx, id)
	return post, nil
}

// load decodes key into dst and reports whether it was a usable hit.
func (c *CachedPostStore) load(ctx context.Context, key string, dst interface{}) bool {
	cachedData, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}

	if err := json.Unmarshal(cachedData, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return false
	}

	return true
}

func (c *CachedPostStore) store(ctx context.Context, key string, value interface{}) {
	jsonData, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}

	if err := c.client.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *CachedPostStore) invalidate(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, postsCacheKey, postCacheKey(id)).Err(); err != nil {
		c.logger.Error().Err(err).Int64("post_id", id).Msg("cache invalidation failed")
	}
}
