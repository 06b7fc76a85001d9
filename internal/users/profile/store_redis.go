// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/vidora/internal/platform/constants"
)

// # Redis Read Cache

// redisCache caches viewer-independent channel profiles under
// "profile:channel:<username>". Cache failures degrade to misses and are
// logged at debug level; Redis being down must never fail a profile read.
type redisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCache creates the Redis-backed channel profile cache.
func NewRedisCache(client *redis.Client, logger *slog.Logger) Cache {
	return &redisCache{client: client, logger: logger}
}

func (cache *redisCache) GetChannel(context context.Context, username string) (*ChannelProfile, bool) {
	payload, err := cache.client.Get(context, cache.key(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		cache.logger.Debug("channel cache read failed", "username", username, "error", err)
		return nil, false
	}

	var channel ChannelProfile
	if err := json.Unmarshal(payload, &channel); err != nil {
		cache.logger.Debug("channel cache entry corrupt", "username", username, "error", err)
		return nil, false
	}
	return &channel, true
}

func (cache *redisCache) SetChannel(context context.Context, username string, channel *ChannelProfile) {
	// IsSubscribed is viewer-specific; never persist it.
	snapshot := *channel
	snapshot.IsSubscribed = false

	payload, err := json.Marshal(&snapshot)
	if err != nil {
		cache.logger.Debug("channel cache marshal failed", "username", username, "error", err)
		return
	}

	err = cache.client.Set(context, cache.key(username), payload, constants.ChannelProfileCacheTTL).Err()
	if err != nil {
		cache.logger.Debug("channel cache write failed", "username", username, "error", err)
	}
}

func (cache *redisCache) InvalidateChannel(context context.Context, username string) {
	if err := cache.client.Del(context, cache.key(username)).Err(); err != nil {
		cache.logger.Debug("channel cache invalidation failed", "username", username, "error", err)
	}
}

func (cache *redisCache) key(username string) string {
	return constants.RedisPrefixChannelProfile + username
}
