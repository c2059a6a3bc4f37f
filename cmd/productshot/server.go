package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/BaSui01/productshot/api"
	"github.com/BaSui01/productshot/api/handlers"
	"github.com/BaSui01/productshot/config"
	"github.com/BaSui01/productshot/history"
	"github.com/BaSui01/productshot/internal/cache"
	"github.com/BaSui01/productshot/internal/database"
	"github.com/BaSui01/productshot/internal/metrics"
	"github.com/BaSui01/productshot/internal/server"
	"github.com/BaSui01/productshot/internal/telemetry"
	"github.com/BaSui01/productshot/llm/image"
	"github.com/BaSui01/productshot/llm/providers"
	"github.com/BaSui01/productshot/llm/providers/openai"
	"github.com/BaSui01/productshot/pipeline"
	"github.com/BaSui01/productshot/refine"
	"github.com/BaSui01/productshot/storage"
	"github.com/BaSui01/productshot/synthesis"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 ProductShot 的主服务器，持有全部组件与两个监听器
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	namespace string

	collector    *metrics.Collector
	telemetry    *telemetry.Providers
	gateway      *storage.Gateway
	objects      storage.Reader
	cache        *cache.Manager
	history      *history.Store
	orchestrator *pipeline.Orchestrator

	healthHandler *handlers.HealthHandler

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		namespace: "productshot",
	}
}

// =============================================================================
// 🚀 初始化流程
// =============================================================================

// Init 按依赖顺序构建所有组件。存储与历史库配置错误会直接返回，
// Redis 不可用时仅关闭缓存。
func (s *Server) Init(ctx context.Context) error {
	// 1. 指标与遥测
	s.collector = metrics.NewCollector(s.namespace, s.logger)

	otelProviders, err := telemetry.Init(ctx, s.cfg.Telemetry, Version, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
	} else {
		s.telemetry = otelProviders
	}

	// 2. 对象存储
	if err := s.initStorage(ctx); err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}

	// 3. 优化结果缓存
	s.initCache()

	// 4. 生成历史
	if err := s.initHistory(ctx); err != nil {
		return fmt.Errorf("failed to init history: %w", err)
	}

	// 5. 流水线
	s.initPipeline()

	// 6. 健康检查
	s.initHealth()

	s.logger.Info("server initialized",
		zap.String("storage_driver", s.cfg.Storage.Driver),
		zap.Bool("storage_configured", s.gateway.Configured()),
		zap.Bool("cache_enabled", s.cache != nil),
		zap.Bool("history_enabled", s.history != nil),
		zap.Bool("llm_configured", s.cfg.LLM.APIKey != ""),
	)
	return nil
}

func (s *Server) initStorage(ctx context.Context) error {
	cfg := s.cfg.Storage
	var backend storage.Backend

	switch cfg.Driver {
	case "memory":
		mem := storage.NewMemoryBackend()
		backend = mem
		s.objects = mem
		if cfg.PublicBaseURL == "" && len(cfg.PublicURLs) == 0 {
			cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d/objects", s.cfg.Server.HTTPPort)
		}
		s.logger.Warn("using in-memory object storage; objects are lost on restart",
			zap.String("public_base_url", cfg.PublicBaseURL))
	default:
		if !cfg.HasCredentials() {
			s.logger.Warn("object storage credentials missing, generation requests will fail")
			break
		}
		s3Backend, err := storage.NewS3Backend(ctx, cfg, s.logger)
		if err != nil {
			return err
		}
		backend = s3Backend
	}

	s.gateway = storage.NewGateway(backend, cfg, s.logger).WithObserver(s.collector)
	return nil
}

func (s *Server) initCache() {
	if !s.cfg.Cache.Enabled {
		return
	}
	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = s.cfg.Redis.Addr
	cacheCfg.Password = s.cfg.Redis.Password
	cacheCfg.DB = s.cfg.Redis.DB
	cacheCfg.PoolSize = s.cfg.Redis.PoolSize
	cacheCfg.MinIdleConns = s.cfg.Redis.MinIdleConns
	cacheCfg.TLSEnabled = s.cfg.Redis.TLSEnabled
	cacheCfg.KeyPrefix = s.cfg.Cache.KeyPrefix
	cacheCfg.DefaultTTL = s.cfg.Cache.RefineTTL

	m, err := cache.NewManager(cacheCfg, s.logger)
	if err != nil {
		s.logger.Warn("redis unavailable, refinement cache disabled", zap.Error(err))
		return
	}
	s.cache = m
}

func (s *Server) initHistory(ctx context.Context) error {
	if !s.cfg.Database.Enabled() {
		s.logger.Info("database not configured, generation history disabled")
		return nil
	}

	db, err := database.Open(s.cfg.Database, s.logger)
	if err != nil {
		return err
	}
	pool, err := database.NewPoolManager(db, s.cfg.Database.Pool, s.logger)
	if err != nil {
		return err
	}
	pool.WithObserver(s.collector)

	store := history.NewStore(pool, s.logger).WithObserver(s.collector)
	if s.cfg.Database.AutoMigrate {
		if err := store.AutoMigrate(ctx); err != nil {
			_ = store.Close()
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	s.history = store
	return nil
}

func (s *Server) initPipeline() {
	chat := openai.NewProvider(openai.Config{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  s.cfg.LLM.APIKey,
			BaseURL: s.cfg.LLM.BaseURL,
			Timeout: s.cfg.LLM.Timeout,
		},
		Organization: s.cfg.LLM.Organization,
	}, s.logger)

	refineCfg := s.cfg.Refine
	if s.cfg.Cache.RefineTTL > 0 {
		refineCfg.CacheTTL = s.cfg.Cache.RefineTTL
	}
	refiner := refine.NewService(chat, refineCfg, s.logger).WithObserver(s.collector)
	if s.cache != nil {
		refiner.WithCache(s.cache)
	}

	images := image.NewOpenAIProvider(image.OpenAIConfig{
		APIKey:       s.cfg.LLM.APIKey,
		BaseURL:      s.cfg.LLM.BaseURL,
		Model:        s.cfg.Image.Model,
		Organization: s.cfg.LLM.Organization,
		Timeout:      s.cfg.Image.Timeout,
	})
	synth := synthesis.NewService(images, s.cfg.Image, s.logger).WithObserver(s.collector)

	s.orchestrator = pipeline.New(refiner, synth, s.gateway, s.cfg.Pipeline, s.logger).
		WithObserver(s.collector)
	if s.history != nil {
		s.orchestrator.WithRecorder(s.history)
	}
}

func (s *Server) initHealth() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	if s.gateway.Configured() {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("storage", s.gateway.Ping))
	}
	if s.cache != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("redis", s.cache.Ping))
	}
	if s.history != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("history", s.history.Ping))
	}
}

// =============================================================================
// 🌐 路由
// =============================================================================

// Handler 返回带完整中间件链的 API handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc(api.PathHealth, s.healthHandler.HandleHealth)
	mux.HandleFunc(api.PathHealthz, s.healthHandler.HandleHealthz)
	mux.HandleFunc(api.PathReady, s.healthHandler.HandleReady)
	mux.HandleFunc(api.PathReadyz, s.healthHandler.HandleReady)
	mux.HandleFunc(api.PathVersion, s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// 生成与润色，别名共享处理器
	gen := handlers.NewGenerationHandler(s.orchestrator, s.logger)
	for _, p := range api.GeneratePaths() {
		mux.HandleFunc(p, gen.Generate())
	}
	for _, p := range api.RefinePaths() {
		mux.HandleFunc(p, gen.Refine())
	}

	// 历史
	var lister handlers.HistoryLister
	if s.history != nil {
		lister = s.history
	}
	mux.HandleFunc(api.PathHistory, handlers.NewHistoryHandler(lister, s.logger).HandleList)

	// 内存存储没有公开域名，由本服务回放对象
	if s.objects != nil {
		mux.HandleFunc("GET "+api.PathObjects+"{bucket}/{key}", handlers.NewObjectHandler(s.objects, s.logger).HandleGet)
	}

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		OTelTracing(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		CORS(),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		MaxBodyBytes(s.cfg.Server.MaxBodyBytes),
		Authenticate(s.cfg.Server.APIKeys, s.cfg.Server.JWT, s.logger),
	)
}

// MetricsHandler 返回 metrics 端口的 handler
func (s *Server) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(api.PathMetrics, promhttp.Handler())
	return mux
}

// =============================================================================
// 🛑 运行与关闭
// =============================================================================

// Run 启动 API 与 metrics 监听器，阻塞到收到信号或监听器出错
func (s *Server) Run(ctx context.Context) error {
	srv := s.cfg.Server

	httpManager := server.NewManager(s.Handler(), server.Config{
		Name:              "api",
		Addr:              fmt.Sprintf(":%d", srv.HTTPPort),
		ReadTimeout:       srv.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      srv.WriteTimeout,
		IdleTimeout:       srv.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
		ShutdownTimeout:   srv.ShutdownTimeout,
	}, s.logger)

	managers := []*server.Manager{httpManager}
	if srv.MetricsPort > 0 {
		managers = append(managers, server.NewManager(s.MetricsHandler(), server.Config{
			Name:              "metrics",
			Addr:              fmt.Sprintf(":%d", srv.MetricsPort),
			ReadTimeout:       srv.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      srv.ReadTimeout,
			IdleTimeout:       srv.IdleTimeout,
			ShutdownTimeout:   srv.ShutdownTimeout,
		}, s.logger))
	}

	s.logger.Info("starting servers",
		zap.Int("http_port", srv.HTTPPort),
		zap.Int("metrics_port", srv.MetricsPort),
	)
	return server.Run(ctx, s.logger, managers...)
}

// Close 释放外部连接并刷新遥测数据
func (s *Server) Close(ctx context.Context) {
	s.logger.Info("releasing resources")

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("cache close error", zap.Error(err))
		}
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.Error("history close error", zap.Error(err))
		}
	}
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Error("telemetry shutdown error", zap.Error(err))
	}
}
