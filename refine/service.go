package refine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/productshot/internal/cache"
	"github.com/BaSui01/productshot/internal/ctxkeys"
	"github.com/BaSui01/productshot/internal/imagecodec"
	"github.com/BaSui01/productshot/llm"
	"github.com/BaSui01/productshot/types"
	"go.uber.org/zap"
)

// Path 表示产生结果的路径
type Path string

const (
	PathVision   Path = "vision"
	PathText     Path = "text"
	PathOriginal Path = "original"
)

// Result 是一次优化的结果，Text 在输入非空时总是非空。
type Result struct {
	Text   string `json:"text"`
	Path   Path   `json:"path"`
	Cached bool   `json:"cached,omitempty"`
}

// Config 提示词优化配置
type Config struct {
	VisionModel string        `yaml:"vision_model" env:"VISION_MODEL"`
	TextModel   string        `yaml:"text_model" env:"TEXT_MODEL"`
	Temperature float32       `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens   int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		VisionModel: "gpt-4o",
		TextModel:   "gpt-4",
		Temperature: 0.7,
		Timeout:     60 * time.Second,
		CacheTTL:    24 * time.Hour,
	}
}

// Cache 是结果缓存，*cache.Manager 满足该接口
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Observer 接收路径与上游调用统计
type Observer interface {
	RecordRefinePath(path string)
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

const cacheType = "refine"

// Service 提示词优化服务
type Service struct {
	provider llm.Provider
	cfg      Config
	cache    Cache
	observer Observer
	logger   *zap.Logger
}

// NewService 创建优化服务，零值配置项使用默认值
func NewService(provider llm.Provider, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.VisionModel == "" {
		cfg.VisionModel = def.VisionModel
	}
	if cfg.TextModel == "" {
		cfg.TextModel = def.TextModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "refine")),
	}
}

// WithCache 启用结果缓存
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

// WithObserver 设置指标观察者
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Configured 报告上游是否可用
func (s *Service) Configured() bool {
	if s == nil || s.provider == nil {
		return false
	}
	if c, ok := s.provider.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// Refine 优化提示词，失败时逐级降级，从不返回错误。
func (s *Service) Refine(ctx context.Context, prompt string, referenceImages []string) Result {
	key := cacheKey(prompt, referenceImages)
	if cached, ok := s.lookup(ctx, key); ok {
		s.recordPath(cached.Path)
		return cached
	}

	result := s.refine(ctx, prompt, referenceImages)
	s.recordPath(result.Path)

	if result.Path != PathOriginal {
		s.store(ctx, key, result)
	}
	return result
}

func (s *Service) refine(ctx context.Context, prompt string, referenceImages []string) Result {
	if s.provider == nil {
		return Result{Text: prompt, Path: PathOriginal}
	}

	if len(referenceImages) > 0 {
		text, err := s.vision(ctx, prompt, referenceImages)
		if err == nil {
			return Result{Text: text, Path: PathVision}
		}
		s.logger.Warn("vision refinement failed, falling back to text",
			zap.Int("references", len(referenceImages)),
			zap.Error(types.NewError(types.ErrRefinement, "vision refinement failed").WithCause(err)))
	}

	text, err := s.text(ctx, prompt)
	if err == nil {
		return Result{Text: text, Path: PathText}
	}
	s.logger.Warn("text refinement failed, returning original prompt",
		zap.Error(types.NewError(types.ErrRefinement, "text refinement failed").WithCause(err)))

	return Result{Text: prompt, Path: PathOriginal}
}

func (s *Service) vision(ctx context.Context, prompt string, referenceImages []string) (string, error) {
	parts := make([]llm.ContentPart, 0, len(referenceImages)+1)
	parts = append(parts, llm.TextPart(prompt))
	for i, img := range referenceImages {
		data, err := imagecodec.Decode(img)
		if err != nil {
			return "", fmt.Errorf("reference %d: %w", i, err)
		}
		parts = append(parts, llm.ImagePart(
			imagecodec.DataURL(imagecodec.DetectMIME(data), data),
			llm.ImageDetailHigh,
		))
	}

	return s.complete(ctx, s.cfg.VisionModel, []llm.Message{
		{Role: llm.RoleSystem, Content: visionSystemPrompt},
		{Role: llm.RoleUser, Parts: parts},
	})
}

func (s *Service) text(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, s.cfg.TextModel, []llm.Message{
		{Role: llm.RoleSystem, Content: textSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	})
}

var errEmptyCompletion = errors.New("completion returned no content")

func (s *Service) complete(ctx context.Context, model string, messages []llm.Message) (string, error) {
	traceID, _ := ctxkeys.RequestID(ctx)
	start := time.Now()
	resp, err := s.provider.Completion(ctx, &llm.ChatRequest{
		TraceID:     traceID,
		Model:       model,
		Messages:    messages,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Timeout:     s.cfg.Timeout,
	})
	latency := time.Since(start)

	if err != nil {
		s.recordLLM(model, "error", latency, nil)
		return "", err
	}
	s.recordLLM(model, "success", latency, resp)

	text := resp.FirstContent()
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

// =============================================================================
// 缓存
// =============================================================================

func cacheKey(prompt string, referenceImages []string) string {
	parts := make([]string, 0, len(referenceImages)+1)
	parts = append(parts, prompt)
	parts = append(parts, referenceImages...)
	return "refine:" + cache.Fingerprint(parts...)
}

func (s *Service) lookup(ctx context.Context, key string) (Result, bool) {
	if s.cache == nil {
		return Result{}, false
	}
	var cached Result
	err := s.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil && cached.Text != "":
		s.cacheHit()
		cached.Cached = true
		return cached, true
	case err == nil, cache.IsCacheMiss(err):
		s.cacheMiss()
	default:
		s.cacheMiss()
		s.logger.Warn("refine cache read failed", zap.Error(err))
	}
	return Result{}, false
}

func (s *Service) store(ctx context.Context, key string, result Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, result, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("refine cache write failed", zap.Error(err))
	}
}

// =============================================================================
// 指标
// =============================================================================

func (s *Service) recordPath(p Path) {
	if s.observer != nil {
		s.observer.RecordRefinePath(string(p))
	}
}

func (s *Service) recordLLM(model, status string, latency time.Duration, resp *llm.ChatResponse) {
	if s.observer == nil {
		return
	}
	var promptTokens, completionTokens int
	if resp != nil {
		promptTokens = resp.Usage.PromptTokens
		completionTokens = resp.Usage.CompletionTokens
	}
	s.observer.RecordLLMRequest(s.provider.Name(), model, status, latency, promptTokens, completionTokens)
}

func (s *Service) cacheHit() {
	if s.observer != nil {
		s.observer.RecordCacheHit(cacheType)
	}
}

func (s *Service) cacheMiss() {
	if s.observer != nil {
		s.observer.RecordCacheMiss(cacheType)
	}
}
