package history

import (
	"context"
	"time"

	"github.com/BaSui01/productshot/internal/database"
	"github.com/BaSui01/productshot/pipeline"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// DefaultListLimit is used when the caller passes no limit.
	DefaultListLimit = 20
	// MaxListLimit caps a single page.
	MaxListLimit = 100

	writeRetries = 3
)

// Observer 接收查询耗时
type Observer interface {
	RecordDBQuery(database, operation string, duration time.Duration)
}

// Store 读写生成历史
type Store struct {
	pool     *database.PoolManager
	observer Observer
	logger   *zap.Logger
}

// NewStore 基于连接池创建存储
func NewStore(pool *database.PoolManager, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool:   pool,
		logger: logger.With(zap.String("component", "history")),
	}
}

// WithObserver 设置指标观察者
func (s *Store) WithObserver(o Observer) *Store {
	s.observer = o
	return s
}

// AutoMigrate 通过 GORM 建表，供本地 sqlite 使用
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.pool.DB().WithContext(ctx).AutoMigrate(&Record{})
}

// Record 写入一行，锁冲突时重试
func (s *Store) Record(ctx context.Context, rec Record) error {
	start := time.Now()
	err := s.pool.WithTransactionRetry(ctx, writeRetries, func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	s.observe("insert", start)
	if err != nil {
		return err
	}
	s.logger.Debug("generation recorded",
		zap.String("id", rec.ID),
		zap.String("status", rec.Status))
	return nil
}

// RecordOutcome implements pipeline.Recorder.
func (s *Store) RecordOutcome(ctx context.Context, o pipeline.Outcome) error {
	return s.Record(ctx, FromOutcome(o))
}

// List 返回最近的记录，新的在前
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	limit = ClampLimit(limit)
	start := time.Now()

	var records []Record
	err := s.pool.DB().WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	s.observe("select", start)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Ping 检查数据库可达
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close 关闭底层连接池
func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) observe(operation string, start time.Time) {
	if s.observer != nil {
		s.observer.RecordDBQuery(s.pool.Name(), operation, time.Since(start))
	}
}

// ClampLimit 把 limit 约束到 [1, MaxListLimit]，非正值取默认
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

var _ pipeline.Recorder = (*Store)(nil)
