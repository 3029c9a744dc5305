package kvstore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize 本地缓存默认容量
const DefaultMemorySize = 500

// Memory 进程内 LRU 存储，容量满时淘汰最久未使用的键
type Memory struct {
	lruCache *lru.Cache[string, []byte]
}

// NewMemory 创建容量为 size 的本地存储
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	l, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Memory{lruCache: l}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := m.lruCache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return val, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	// 拷贝一份，避免调用方后续修改底层数组
	buf := make([]byte, len(value))
	copy(buf, value)
	m.lruCache.Add(key, buf)
	return nil
}

// Len 当前键数量
func (m *Memory) Len() int {
	return m.lruCache.Len()
}
