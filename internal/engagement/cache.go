package engagement

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const countTTL = 5 * time.Minute

// CountCache is a cache-aside layer for engagement counts at the HTTP
// boundary. The server-recomputed count is always authoritative: writers
// overwrite the cached value after every toggle or repost, and readers fall
// back to storage on a miss. The feed aggregator never reads from it.
type CountCache struct {
	client *redis.Client
}

// NewCountCache creates a count cache over the given redis client. A nil
// client disables caching; every lookup is then a miss.
func NewCountCache(client *redis.Client) *CountCache {
	return &CountCache{client: client}
}

// GetUpvotes returns the cached upvote count for a chat and whether it was
// present. Cache errors degrade to a miss.
func (c *CountCache) GetUpvotes(ctx context.Context, chatID string) (int, bool) {
	return c.get(ctx, upvotesKey(chatID))
}

// SetUpvotes stores the authoritative upvote count for a chat.
func (c *CountCache) SetUpvotes(ctx context.Context, chatID string, count int) {
	c.set(ctx, upvotesKey(chatID), count)
}

// GetReposts returns the cached repost count for a chat and whether it was
// present.
func (c *CountCache) GetReposts(ctx context.Context, chatID string) (int, bool) {
	return c.get(ctx, repostsKey(chatID))
}

// SetReposts stores the authoritative repost count for a chat.
func (c *CountCache) SetReposts(ctx context.Context, chatID string, count int) {
	c.set(ctx, repostsKey(chatID), count)
}

func (c *CountCache) get(ctx context.Context, key string) (int, bool) {
	if c.client == nil {
		return 0, false
	}

	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("count cache read failed")
		return 0, false
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *CountCache) set(ctx context.Context, key string, count int) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, strconv.Itoa(count), countTTL).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("count cache write failed")
	}
}

func upvotesKey(chatID string) string {
	return fmt.Sprintf("chat:%s:upvotes", chatID)
}

func repostsKey(chatID string) string {
	return fmt.Sprintf("chat:%s:reposts", chatID)
}
