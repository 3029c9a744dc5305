package cacheaside

import (
	"context"
	"encoding/json"
	"fmt"

	"newsroom/internal/kvstore"
)

// Codec 基于 kvstore 的 JSON 读写函数
type Codec[V any] struct {
	store kvstore.Store
}

func StoreCodec[V any](store kvstore.Store) Codec[V] {
	return Codec[V]{store: store}
}

func (c Codec[V]) Read(ctx context.Context, key string) (Entry[V], bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return Entry[V]{}, false, err
	}
	var entry Entry[V]
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry[V]{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

func (c Codec[V]) Write(ctx context.Context, key string, entry Entry[V]) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return c.store.Set(ctx, key, raw)
}
