// Package kvstore 提供不透明的键值持久化存储。
// 访客标识与缓存条目都只依赖 Store 接口，具体介质可替换。
package kvstore

import (
	"context"
)

// Store 简单的键值存储，后写覆盖先写
type Store interface {
	// Get 返回值以及是否存在
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}
