package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/productshot/storage"
)

// MockBackend 包装内存后端，可按桶或按次数注入写入失败
type MockBackend struct {
	*storage.MemoryBackend

	mu         sync.Mutex
	failBucket map[string]error
	failOnPut  int // 第 N 次 Put 失败，0 表示不启用
	puts       []storage.Object
	stored     []storage.Object
}

// NewMockBackend 创建模拟后端
func NewMockBackend() *MockBackend {
	return &MockBackend{
		MemoryBackend: storage.NewMemoryBackend(),
		failBucket:    make(map[string]error),
	}
}

// FailBucket 让写入某个桶的请求返回 err
func (m *MockBackend) FailBucket(bucket string, err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failBucket[bucket] = err
	return m
}

// FailOnPut 让第 n 次 Put 返回错误
func (m *MockBackend) FailOnPut(n int) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOnPut = n
	return m
}

// Put 记录写入顺序并按配置注入失败
func (m *MockBackend) Put(ctx context.Context, obj storage.Object, overwrite bool) error {
	m.mu.Lock()
	m.puts = append(m.puts, storage.Object{Bucket: obj.Bucket, Key: obj.Key, ContentType: obj.ContentType})
	n := len(m.puts)
	err := m.failBucket[obj.Bucket]
	if m.failOnPut > 0 && n == m.failOnPut {
		err = errInjected
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if err := m.MemoryBackend.Put(ctx, obj, overwrite); err != nil {
		return err
	}

	m.mu.Lock()
	m.stored = append(m.stored, storage.Object{Bucket: obj.Bucket, Key: obj.Key, ContentType: obj.ContentType})
	m.mu.Unlock()
	return nil
}

// Keys 按写入顺序返回某个桶内成功写入的键
func (m *MockBackend) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for _, obj := range m.stored {
		if obj.Bucket == bucket {
			keys = append(keys, obj.Key)
		}
	}
	return keys
}

// Puts 返回写入记录（不含数据）
func (m *MockBackend) Puts() []storage.Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.Object, len(m.puts))
	copy(out, m.puts)
	return out
}

func (m *MockBackend) Name() string { return "mock" }

type injectedError struct{}

func (injectedError) Error() string { return "mock backend: injected put failure" }

var errInjected error = injectedError{}

var _ storage.Backend = (*MockBackend)(nil)
