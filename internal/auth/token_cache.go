package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

// TokenCache 缓存 JWT 的解析结果，省掉每次请求的验签开销。
// key 经一致性哈希环打上节点前缀，多实例部署时各实例的热 key 分布一致。
type TokenCache struct {
	redis radix.Client
	ring  *ConsistentHashRing
	ttl   time.Duration
}

func NewTokenCache(redis radix.Client, ring *ConsistentHashRing, ttl time.Duration) *TokenCache {
	if ring == nil {
		ring = NewConsistentHashRing(nil, 0)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TokenCache{redis: redis, ring: ring, ttl: ttl}
}

func (c *TokenCache) cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:claims:" + c.ring.GetNode(token) + ":" + hex.EncodeToString(sum[:16])
}

// Get 命中返回缓存的 claims；缓存未配置或未命中返回 (nil, false, nil)
func (c *TokenCache) Get(ctx context.Context, token string) (*Claims, bool, error) {
	if c.redis == nil {
		return nil, false, nil
	}
	key := c.cacheKey(token)
	var raw string
	mb := radix.MaybeNil{Rcv: &raw}
	if err := c.redis.Do(radix.Cmd(&mb, "GET", key)); err != nil {
		return nil, false, err
	}
	if mb.Nil {
		return nil, false, nil
	}
	var claims Claims
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		// 缓存内容损坏，删掉重走验签
		_ = c.redis.Do(radix.Cmd(nil, "DEL", key))
		return nil, false, nil
	}
	return &claims, true, nil
}

// Set 写入解析结果，带 TTL
func (c *TokenCache) Set(ctx context.Context, token string, claims *Claims) error {
	if c.redis == nil || claims == nil {
		return nil
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return err
	}
	return c.redis.Do(radix.FlatCmd(nil, "SETEX",
		c.cacheKey(token), int64(c.ttl/time.Second), body))
}
