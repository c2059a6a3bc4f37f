package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/productshot/internal/imagecodec"
	"github.com/BaSui01/productshot/types"
	"go.uber.org/zap"
)

// Observer receives upload outcomes (implemented by metrics.Collector).
type Observer interface {
	RecordStorageUpload(bucket, status string, size int)
}

// Gateway 对象存储网关
type Gateway struct {
	backend  Backend
	cfg      Config
	logger   *zap.Logger
	observer Observer
}

// NewGateway 创建网关。backend 为 nil 表示存储未配置。
func NewGateway(backend Backend, cfg Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		backend: backend,
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "storage")),
	}
}

// WithObserver 设置上传结果观察者
func (g *Gateway) WithObserver(o Observer) *Gateway {
	g.observer = o
	return g
}

// Configured 报告是否有可用后端
func (g *Gateway) Configured() bool {
	return g != nil && g.backend != nil
}

// Backend 返回底层后端
func (g *Gateway) Backend() Backend {
	return g.backend
}

// Upload 写入 bucket/key 并返回公开 URL。
func (g *Gateway) Upload(ctx context.Context, bucket, key string, data []byte, opts UploadOptions) (string, error) {
	if !g.Configured() {
		return "", types.NewConfigurationError("Storage is not configured")
	}
	if bucket == "" || key == "" {
		return "", types.NewError(types.ErrStorageWrite, "bucket and key are required")
	}
	if opts.ContentType == "" {
		opts.ContentType = imagecodec.DetectMIME(data)
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := g.backend.Put(ctx, Object{
		Bucket:       bucket,
		Key:          key,
		Data:         data,
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
	}, opts.AllowOverwrite)
	if err != nil {
		g.record(bucket, string(types.ErrStorageWrite), len(data))
		g.logger.Warn("upload failed",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.String("backend", g.backend.Name()),
			zap.Error(err))
		msg := "failed to upload object"
		if errors.Is(err, ErrObjectExists) {
			msg = "object key already exists"
		}
		return "", types.NewError(types.ErrStorageWrite, msg).WithCause(err)
	}

	publicURL, err := g.PublicURL(bucket, key)
	if err != nil {
		// 对象已写入但无法寻址，按失败处理
		g.record(bucket, string(types.ErrStorageURL), len(data))
		g.logger.Warn("public url derivation failed, object orphaned",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err))
		return "", err
	}

	g.record(bucket, "success", len(data))
	g.logger.Debug("object uploaded",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("size", len(data)),
		zap.Duration("latency", time.Since(start)))

	return publicURL, nil
}

// Store 以 prefix 生成新键并拒绝覆盖地写入。
func (g *Gateway) Store(ctx context.Context, bucket, prefix string, data []byte, mimeType string) (Artifact, error) {
	if mimeType == "" {
		mimeType = imagecodec.DetectMIME(data)
	}
	key := NewKey(prefix, imagecodec.Extension(mimeType))
	publicURL, err := g.Upload(ctx, bucket, key, data, UploadOptions{
		ContentType:    mimeType,
		CacheControl:   g.cfg.CacheControl,
		AllowOverwrite: false,
	})
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{PublicURL: publicURL, Bucket: bucket, Key: key}, nil
}

// PublicURL 由 bucket/key 推导公开地址，不发起网络请求。
//
// 优先级：public_urls[bucket]/key → public_base_url/bucket/key → endpoint/bucket/key。
func (g *Gateway) PublicURL(bucket, key string) (string, error) {
	if base := strings.TrimSpace(g.cfg.PublicURLs[bucket]); base != "" {
		return joinURL(base, key)
	}
	if base := strings.TrimSpace(g.cfg.PublicBaseURL); base != "" {
		return joinURL(base, bucket, key)
	}
	if base := strings.TrimSpace(g.cfg.Endpoint); base != "" {
		return joinURL(base, bucket, key)
	}
	return "", types.NewError(types.ErrStorageURL, "no public url base configured for bucket "+bucket)
}

func joinURL(base string, elem ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", types.NewError(types.ErrStorageURL, "invalid public url base").WithCause(err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", types.NewError(types.ErrStorageURL,
			fmt.Sprintf("public url base must be an absolute http(s) url: %q", base))
	}
	return u.JoinPath(elem...).String(), nil
}

func (g *Gateway) record(bucket, status string, size int) {
	if g.observer != nil {
		g.observer.RecordStorageUpload(bucket, status, size)
	}
}

type pinger interface {
	Ping(ctx context.Context, bucket string) error
}

// Ping 检查后端可达性；不支持探活的后端直接返回 nil。
func (g *Gateway) Ping(ctx context.Context) error {
	if !g.Configured() {
		return types.NewConfigurationError("Storage is not configured")
	}
	p, ok := g.backend.(pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx, BucketGeneratedImages)
}
