package namecache

import (
	"context"
	"fmt"
	"sync"
)

// Store 标的名称缓存，按市场分区的 code -> name 映射
// 实现需支持并发读；并发写按后写覆盖处理。
type Store interface {
	Get(ctx context.Context, market, code string) (name string, ok bool, err error)
	Put(ctx context.Context, market, code, name string) error
}

// Memory 内存实现
type Memory struct {
	mu      sync.RWMutex
	markets map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{markets: make(map[string]map[string]string)}
}

func (m *Memory) Get(_ context.Context, market, code string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.markets[market][code]
	return name, ok, nil
}

func (m *Memory) Put(_ context.Context, market, code, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	names, ok := m.markets[market]
	if !ok {
		names = make(map[string]string)
		m.markets[market] = names
	}
	names[code] = name
	return nil
}

// Len 条目总数
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, names := range m.markets {
		n += len(names)
	}
	return n
}

// Backend 缓存后端类型
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendDatabase Backend = "database"
	BackendRedis    Backend = "redis"
)

// ErrUnknownBackend 未知的后端类型
type ErrUnknownBackend struct {
	Backend string
}

func (e *ErrUnknownBackend) Error() string {
	return fmt.Sprintf("unknown name cache backend %q", e.Backend)
}
