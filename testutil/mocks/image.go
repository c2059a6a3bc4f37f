package mocks

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/BaSui01/productshot/llm/image"
)

// MockImageProvider 是 image.Provider 的模拟实现
type MockImageProvider struct {
	mu sync.RWMutex

	images       []image.ImageData
	err          error
	unconfigured bool

	generateCalls []image.GenerateRequest
	editCalls     []RecordedEdit
}

// RecordedEdit 记录一次 Edit 调用，图片内容已读出
type RecordedEdit struct {
	Request image.EditRequest
	Images  []RecordedImage
}

// RecordedImage 是读出的输入图
type RecordedImage struct {
	Name     string
	MimeType string
	Data     []byte
}

// NewMockImageProvider 创建默认返回一张 b64 图像的模拟
func NewMockImageProvider(b64 string) *MockImageProvider {
	return &MockImageProvider{images: []image.ImageData{{B64JSON: b64}}}
}

// WithImages 设置返回的图像
func (m *MockImageProvider) WithImages(images ...image.ImageData) *MockImageProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = images
	return m
}

// WithError 设置返回错误
func (m *MockImageProvider) WithError(err error) *MockImageProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithUnconfigured 让 Configured 返回 false
func (m *MockImageProvider) WithUnconfigured() *MockImageProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unconfigured = true
	return m
}

func (m *MockImageProvider) Name() string { return "mock-image" }

// Configured 报告是否已配置
func (m *MockImageProvider) Configured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.unconfigured
}

// Generate 记录请求并返回预设结果
func (m *MockImageProvider) Generate(ctx context.Context, req *image.GenerateRequest) (*image.GenerateResponse, error) {
	m.mu.Lock()
	m.generateCalls = append(m.generateCalls, *req)
	m.mu.Unlock()
	return m.result(req.Model)
}

// Edit 读出全部输入图后返回预设结果
func (m *MockImageProvider) Edit(ctx context.Context, req *image.EditRequest) (*image.GenerateResponse, error) {
	rec := RecordedEdit{Request: *req}
	for _, img := range req.Images {
		var data []byte
		if img.Data != nil {
			data, _ = io.ReadAll(img.Data)
		}
		rec.Images = append(rec.Images, RecordedImage{Name: img.Name, MimeType: img.MimeType, Data: data})
	}
	m.mu.Lock()
	m.editCalls = append(m.editCalls, rec)
	m.mu.Unlock()
	return m.result(req.Model)
}

func (m *MockImageProvider) result(model string) (*image.GenerateResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	images := make([]image.ImageData, len(m.images))
	copy(images, m.images)
	return &image.GenerateResponse{
		Provider:  m.Name(),
		Model:     model,
		Images:    images,
		Usage:     image.ImageUsage{ImagesGenerated: len(images)},
		CreatedAt: time.Now(),
	}, nil
}

// GenerateCalls 返回 Generate 调用记录
func (m *MockImageProvider) GenerateCalls() []image.GenerateRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]image.GenerateRequest, len(m.generateCalls))
	copy(out, m.generateCalls)
	return out
}

// EditCalls 返回 Edit 调用记录
func (m *MockImageProvider) EditCalls() []RecordedEdit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedEdit, len(m.editCalls))
	copy(out, m.editCalls)
	return out
}

// TotalCalls 返回 Generate 与 Edit 调用总数
func (m *MockImageProvider) TotalCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.generateCalls) + len(m.editCalls)
}

var _ image.Provider = (*MockImageProvider)(nil)
