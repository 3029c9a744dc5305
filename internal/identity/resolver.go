// Package identity 为匿名访客生成并持久化一个稳定标识，用于归属表情回应。
// 该标识不是登录身份，也不承担任何鉴权。
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"newsroom/internal/kvstore"
)

// DefaultKey 访客标识在存储中的键
const DefaultKey = "visitor_id"

// Resolver 访客标识解析器
type Resolver struct {
	store    kvstore.Store
	key      string
	generate func() string

	// 只串行化共享同一个 Resolver 的调用
	mu sync.Mutex
}

type Option func(*Resolver)

func WithKey(key string) Option {
	return func(r *Resolver) { r.key = key }
}

// WithGenerator 替换标识生成函数，测试用
func WithGenerator(gen func() string) Option {
	return func(r *Resolver) { r.generate = gen }
}

func NewResolver(store kvstore.Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		key:      DefaultKey,
		generate: NewVisitorID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetUserIdentifier 返回已持久化的标识；首次调用时生成并保存
func (r *Resolver) GetUserIdentifier(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		return "", fmt.Errorf("read visitor id: %w", err)
	}
	if ok && len(raw) > 0 {
		return string(raw), nil
	}

	id := r.generate()
	if err := r.store.Set(ctx, r.key, []byte(id)); err != nil {
		return "", fmt.Errorf("persist visitor id: %w", err)
	}
	return id, nil
}

// NewVisitorID 基于时间加随机数的 UUIDv7，足够区分访客但不具备安全性
func NewVisitorID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "v_" + id.String()
}
