// Package cache holds donation request list views in redis. Each cached list
// is indexed by the ids it contains and by its status filter so a change to
// one request drops only the lists that can be affected by it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"redaid/pkg/types"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix      = "redaid:requests:"
	allStatusesKey = "all"
)

type RequestListCache struct {
	logger logrus.FieldLogger
	client *redis.Client
	ttl    time.Duration
}

func NewRequestListCache(logger logrus.FieldLogger, client *redis.Client, ttl time.Duration) *RequestListCache {
	return &RequestListCache{logger: logger, client: client, ttl: ttl}
}

// Connect parses a redis URL and verifies the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func listKey(filter *types.DonationRequestFilter) string {
	status := filter.Status
	if status == "" {
		status = allStatusesKey
	}
	return fmt.Sprintf("%slist:%s:%s:%d:%d", keyPrefix, status, filter.RequesterEmail, filter.Page, filter.Limit)
}

func memberIndexKey(id string) string {
	return keyPrefix + "member:" + id
}

func statusIndexKey(status string) string {
	return keyPrefix + "status:" + status
}

// List returns a cached list. The boolean is false on a miss.
func (c *RequestListCache) List(ctx context.Context, filter *types.DonationRequestFilter) ([]*types.DonationRequest, bool, error) {
	raw, err := c.client.Get(ctx, listKey(filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached request list: %w", err)
	}

	var requests []*types.DonationRequest
	if err := json.Unmarshal(raw, &requests); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached request list: %w", err)
	}

	return requests, true, nil
}

func (c *RequestListCache) StoreList(ctx context.Context, filter *types.DonationRequestFilter, requests []*types.DonationRequest) error {
	raw, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("failed to encode request list: %w", err)
	}

	key := listKey(filter)
	status := filter.Status
	if status == "" {
		status = allStatusesKey
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, raw, c.ttl)
		pipe.SAdd(ctx, statusIndexKey(status), key)
		pipe.Expire(ctx, statusIndexKey(status), c.ttl)
		for _, req := range requests {
			pipe.SAdd(ctx, memberIndexKey(req.ID), key)
			pipe.Expire(ctx, memberIndexKey(req.ID), c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store request list: %w", err)
	}

	return nil
}

// CacheAside serves the list from cache, or loads and stores it on a miss.
// Cache failures fall through to load.
func (c *RequestListCache) CacheAside(ctx context.Context, filter *types.DonationRequestFilter, load func() ([]*types.DonationRequest, error)) ([]*types.DonationRequest, error) {
	if requests, ok, err := c.List(ctx, filter); err == nil && ok {
		return requests, nil
	}

	requests, err := load()
	if err != nil {
		return nil, err
	}

	if err := c.StoreList(ctx, filter, requests); err != nil {
		c.logger.WithError(err).WithField("list", listKey(filter)).Error("failed to cache donation request list")
	}
	return requests, nil
}

// InvalidateRequest drops every list containing id and lists filtered on any
// of statuses, since the request may now belong there. When no cached list
// holds id yet the request may be new, so unfiltered lists are dropped too.
func (c *RequestListCache) InvalidateRequest(ctx context.Context, id string, statuses ...types.RequestStatus) error {
	known, err := c.client.Exists(ctx, memberIndexKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to check cached lists for request %s: %w", id, err)
	}

	return c.invalidate(ctx, id, known == 0, statuses)
}

// InvalidateRemovedRequest is InvalidateRequest for a deleted request. Rows
// after it shift up a page, so every page of the unfiltered lists and of the
// lists filtered on its status is dropped.
func (c *RequestListCache) InvalidateRemovedRequest(ctx context.Context, id string, status types.RequestStatus) error {
	return c.invalidate(ctx, id, true, []types.RequestStatus{status})
}

func (c *RequestListCache) invalidate(ctx context.Context, id string, unfiltered bool, statuses []types.RequestStatus) error {
	indexes := []string{memberIndexKey(id)}
	if unfiltered {
		indexes = append(indexes, statusIndexKey(allStatusesKey))
	}
	for _, s := range statuses {
		indexes = append(indexes, statusIndexKey(string(s)))
	}

	keys, err := c.client.SUnion(ctx, indexes...).Result()
	if err != nil {
		return fmt.Errorf("failed to resolve cached lists for request %s: %w", id, err)
	}

	keys = append(keys, memberIndexKey(id))
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached lists for request %s: %w", id, err)
	}

	return nil
}
