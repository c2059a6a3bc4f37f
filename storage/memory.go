package storage

import (
	"context"
	"sync"
)

// MemoryBackend 是进程内对象存储
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryBackend 创建空的内存后端
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]Object)}
}

func memoryKey(bucket, key string) string { return bucket + "/" + key }

// Put 写入对象；检查与写入在同一把锁内完成。
func (m *MemoryBackend) Put(ctx context.Context, obj Object, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := memoryKey(obj.Bucket, obj.Key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[k]; ok && !overwrite {
		return ErrObjectExists
	}
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)
	obj.Data = data
	m.objects[k] = obj
	return nil
}

// Exists 报告对象是否存在
func (m *MemoryBackend) Exists(_ context.Context, bucket, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[memoryKey(bucket, key)]
	return ok, nil
}

// Get 读取对象
func (m *MemoryBackend) Get(_ context.Context, bucket, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[memoryKey(bucket, key)]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return obj, nil
}

func (m *MemoryBackend) Name() string { return "memory" }
