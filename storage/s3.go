package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/BaSui01/productshot/internal/tlsutil"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// S3API 是 S3Backend 使用到的客户端方法子集
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Backend 基于 S3 兼容 API 的后端
type S3Backend struct {
	client S3API
	logger *zap.Logger
}

// NewS3Backend 使用静态凭证与自定义端点创建后端。
func NewS3Backend(ctx context.Context, cfg Config, logger *zap.Logger) (*S3Backend, error) {
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("s3 endpoint and credentials are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	httpClient := tlsutil.NewHTTPClient(tlsutil.ClientOptions{
		Timeout:            cfg.Timeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	// Path-Style 避免虚拟主机风格子域名的 TLS 问题
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3BackendWithClient(client, logger), nil
}

// NewS3BackendWithClient 使用已有客户端创建后端
func NewS3BackendWithClient(client S3API, logger *zap.Logger) *S3Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Backend{client: client, logger: logger.With(zap.String("backend", "s3"))}
}

func (b *S3Backend) Name() string { return "s3" }

// Put 上传对象。overwrite=false 时先 HeadObject，已存在则返回 ErrObjectExists。
func (b *S3Backend) Put(ctx context.Context, obj Object, overwrite bool) error {
	// HeadObject 与 PutObject 之间存在竞争窗口，并发写同一键可能都通过检查。
	// TODO: 升级 service/s3 到支持 PutObjectInput.IfNoneMatch 的版本后改为 IfNoneMatch: "*" 条件写入。
	if !overwrite {
		exists, err := b.Exists(ctx, obj.Bucket, obj.Key)
		if err != nil {
			return err
		}
		if exists {
			return ErrObjectExists
		}
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(obj.Bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(obj.Data),
		ContentLength: aws.Int64(int64(len(obj.Data))),
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.CacheControl != "" {
		input.CacheControl = aws.String(CacheControlHeader(obj.CacheControl))
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put %s/%s: %w", obj.Bucket, obj.Key, err)
	}
	return nil
}

// Exists 通过 HeadObject 判断对象是否存在
func (b *S3Backend) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head %s/%s: %w", bucket, key, err)
}

// Ping 检查桶是否可达
func (b *S3Backend) Ping(ctx context.Context, bucket string) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) && statusErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}

// CacheControlHeader 把纯秒数转换为 max-age 指令，用于 S3 元数据与 HTTP 响应
func CacheControlHeader(v string) string {
	for _, r := range v {
		if r < '0' || r > '9' {
			return v
		}
	}
	return "max-age=" + v
}
