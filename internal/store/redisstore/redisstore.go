package redisstore

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Store keeps per-user unread counters in redis, one hash per user keyed
// by conversation id. Counters back the unread badge for clients that were
// offline when a message landed.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Client() *redis.Client { return s.client }

func unreadKey(userID uint64) string {
	return "chat:unread:" + strconv.FormatUint(userID, 10)
}

func (s *Store) IncrUnread(ctx context.Context, userID uint64, conversationID string) error {
	return s.client.HIncrBy(ctx, unreadKey(userID), conversationID, 1).Err()
}

func (s *Store) GetUnread(ctx context.Context, userID uint64, conversationID string) (int64, error) {
	v, err := s.client.HGet(ctx, unreadKey(userID), conversationID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (s *Store) ResetUnread(ctx context.Context, userID uint64, conversationID string) error {
	return s.client.HDel(ctx, unreadKey(userID), conversationID).Err()
}
