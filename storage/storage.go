package storage

import (
	"context"
	"errors"
	"time"
)

// Bucket names used by the generation pipeline.
const (
	BucketUserImages      = "user-images"
	BucketGeneratedImages = "generated-images"
)

// ErrObjectExists is returned by a Backend when the key is taken and overwrite is off.
var ErrObjectExists = errors.New("object already exists")

// ErrObjectNotFound is returned by readable backends for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

// Object 是一次写入的内容
type Object struct {
	Bucket       string
	Key          string
	Data         []byte
	ContentType  string
	CacheControl string
}

// UploadOptions 控制单次上传
type UploadOptions struct {
	ContentType    string
	CacheControl   string
	AllowOverwrite bool
}

// Artifact 是已持久化的产物
type Artifact struct {
	PublicURL string `json:"publicUrl"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
}

// Backend 是键值式对象存储
type Backend interface {
	// Put writes obj. With overwrite=false an existing key yields ErrObjectExists.
	Put(ctx context.Context, obj Object, overwrite bool) error

	// Exists reports whether bucket/key is present.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// Name identifies the backend in logs.
	Name() string
}

// Reader is implemented by backends that can serve stored objects back.
type Reader interface {
	Get(ctx context.Context, bucket, key string) (Object, error)
}

// Config 对象存储配置
type Config struct {
	// Driver 为 s3 或 memory
	Driver          string            `yaml:"driver" env:"DRIVER"`
	Endpoint        string            `yaml:"endpoint" env:"ENDPOINT"`
	Region          string            `yaml:"region" env:"REGION"`
	AccessKeyID     string            `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string            `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	UsePathStyle    bool              `yaml:"use_path_style" env:"USE_PATH_STYLE"`
	PublicBaseURL   string            `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
	PublicURLs      map[string]string `yaml:"public_urls"`
	CacheControl    string            `yaml:"cache_control" env:"CACHE_CONTROL"`
	Timeout         time.Duration     `yaml:"timeout" env:"TIMEOUT"`
	// InsecureSkipVerify 仅用于自签名证书的本地存储
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" env:"INSECURE_SKIP_VERIFY"`
}

// DefaultConfig 返回默认存储配置
func DefaultConfig() Config {
	return Config{
		Driver:       "s3",
		Region:       "auto",
		UsePathStyle: true,
		CacheControl: "3600",
		Timeout:      30 * time.Second,
	}
}

// HasCredentials 报告 S3 驱动所需的端点与凭证是否齐全
func (c Config) HasCredentials() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}
