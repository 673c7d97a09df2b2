package storage

import (
	"context"
	"encoding/json"
	"time"

	"PSocial/module/social/model"
	"PSocial/service/storage/redis"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// presence key: im:presence:<user>   值为 JSON 的 PresenceEntry, TTL 控制在线有效期
// last-seen key: im:lastseen:<user>  永久保留, 下线后仍可查询
func presenceKey(user string) string { return "im:presence:" + user }
func lastSeenKey(user string) string { return "im:lastseen:" + user }

// RedisPresence 基于 Redis 的在线状态缓存, key 过期即视为离线。
type RedisPresence struct {
	rdb *goredis.Client
}

func NewRedisPresence() *RedisPresence {
	return &RedisPresence{rdb: redis.GetRedis()}
}

func (p *RedisPresence) Set(ctx context.Context, userID string, entry model.PresenceEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal presence entry")
	}
	return p.rdb.Set(ctx, presenceKey(userID), raw, ttl).Err()
}

// Get 返回 (nil, nil) 表示 key 不存在, 调用方解释为离线。
func (p *RedisPresence) Get(ctx context.Context, userID string) (*model.PresenceEntry, error) {
	raw, err := p.rdb.Get(ctx, presenceKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get presence entry")
	}
	var entry model.PresenceEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, errors.Wrap(err, "decode presence entry")
	}
	return &entry, nil
}

func (p *RedisPresence) Delete(ctx context.Context, userID string) error {
	return p.rdb.Del(ctx, presenceKey(userID)).Err()
}

func (p *RedisPresence) SetLastSeen(ctx context.Context, userID string, ts time.Time) error {
	return p.rdb.Set(ctx, lastSeenKey(userID), ts.UnixMilli(), 0).Err()
}

func (p *RedisPresence) GetLastSeen(ctx context.Context, userID string) (time.Time, error) {
	v, err := p.rdb.Get(ctx, lastSeenKey(userID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Wrap(err, "get last seen")
	}
	return time.UnixMilli(v), nil
}
