// Package cacheaside 实现旁路缓存：先读缓存，过期或缺失时回源并写回。
// 同一个 key 的并发回源会合并成一次。
package cacheaside

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"newsroom/internal/metrics"
)

// Entry 缓存条目，FetchedAt 记录回源开始的时间
type Entry[V any] struct {
	Value     V         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// ReadFunc 读取缓存条目，found=false 表示不存在
type ReadFunc[V any] func(ctx context.Context, key string) (entry Entry[V], found bool, err error)

// WriteFunc 写入缓存条目
type WriteFunc[V any] func(ctx context.Context, key string, entry Entry[V]) error

// FetchFunc 回源获取数据
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Request 描述一次旁路缓存读取；TTL 与存储介质由调用方决定
type Request[V any] struct {
	Key    string
	Family string // 指标标签，如 "article_comments"
	TTL    time.Duration
	Fetch  FetchFunc[V]
	Read   ReadFunc[V]
	Write  WriteFunc[V]
}

// Coordinator 持有合并回源所需的共享状态，显式构造后向下传递
type Coordinator struct {
	flight  singleflight.Group
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics
}

type Option func(*Coordinator)

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func New(log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		now: time.Now,
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch 缓存新鲜则直接返回；否则回源、写回并返回。
// 回源失败时不写缓存，原有条目（即使已过期）保留供 Peek 降级读取。
func GetOrFetch[V any](ctx context.Context, c *Coordinator, req Request[V]) (V, error) {
	if entry, ok := lookup(ctx, c, req); ok && fresh(c, entry, req.TTL) {
		c.metrics.CacheLookup(req.Family, metrics.CacheHit)
		return entry.Value, nil
	}
	return load(ctx, c, req, false)
}

// Refresh 无视新鲜度强制回源并覆盖缓存，用于写操作之后
func Refresh[V any](ctx context.Context, c *Coordinator, req Request[V]) (V, error) {
	// 之后的读取不再加入写操作之前发起的回源
	c.flight.Forget(req.Key)
	return load(ctx, c, req, true)
}

// Peek 只读缓存，不回源，返回条目（可能已过期）
func Peek[V any](ctx context.Context, read ReadFunc[V], key string) (Entry[V], bool) {
	entry, ok, err := read(ctx, key)
	if err != nil || !ok {
		return Entry[V]{}, false
	}
	return entry, true
}

func load[V any](ctx context.Context, c *Coordinator, req Request[V], force bool) (V, error) {
	// 共享的回源不受单个调用方取消的影响
	flightCtx := context.WithoutCancel(ctx)

	v, err, shared := c.flight.Do(req.Key, func() (interface{}, error) {
		if !force {
			// 等待期间可能已有其他回源写入新值
			if entry, ok := lookup(flightCtx, c, req); ok && fresh(c, entry, req.TTL) {
				return entry.Value, nil
			}
		}

		started := c.now()
		value, err := req.Fetch(flightCtx)
		c.metrics.ObserveFetch(req.Family, c.now().Sub(started).Seconds())
		if err != nil {
			return nil, err
		}
		store(flightCtx, c, req, Entry[V]{Value: value, FetchedAt: started})
		return value, nil
	})

	if err != nil {
		c.metrics.CacheLookup(req.Family, metrics.CacheError)
		c.log.Warn().Err(err).Str("key", req.Key).Msg("cache fetch failed")
		var zero V
		return zero, fmt.Errorf("fetch %s: %w", req.Key, err)
	}
	if shared {
		c.metrics.CacheLookup(req.Family, metrics.CacheCoalesced)
	} else {
		c.metrics.CacheLookup(req.Family, metrics.CacheMiss)
	}
	value, _ := v.(V)
	return value, nil
}

func lookup[V any](ctx context.Context, c *Coordinator, req Request[V]) (Entry[V], bool) {
	entry, ok, err := req.Read(ctx, req.Key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", req.Key).Msg("cache read failed, treating as miss")
		return Entry[V]{}, false
	}
	return entry, ok
}

func fresh[V any](c *Coordinator, entry Entry[V], ttl time.Duration) bool {
	return c.now().Sub(entry.FetchedAt) < ttl
}

// store 写回缓存；已有更新的条目时跳过，写入失败只记录日志
func store[V any](ctx context.Context, c *Coordinator, req Request[V], entry Entry[V]) {
	if current, ok := lookup(ctx, c, req); ok && current.FetchedAt.After(entry.FetchedAt) {
		return
	}
	if err := req.Write(ctx, req.Key, entry); err != nil {
		c.log.Warn().Err(err).Str("key", req.Key).Msg("cache write failed")
	}
}
