package synthesis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/productshot/internal/imagecodec"
	"github.com/BaSui01/productshot/internal/tlsutil"
	"github.com/BaSui01/productshot/llm"
	"github.com/BaSui01/productshot/llm/image"
	"github.com/BaSui01/productshot/types"
	"go.uber.org/zap"
)

// Mode 合成模式
type Mode string

const (
	ModeGenerate Mode = "generate"
	ModeEdit     Mode = "edit"
)

// ModeFor 根据参考图数量选择模式
func ModeFor(referenceImages []string) Mode {
	if len(referenceImages) > 0 {
		return ModeEdit
	}
	return ModeGenerate
}

// Result 是一次合成的产物
type Result struct {
	ImageBytes    []byte
	MimeType      string
	Mode          Mode
	Model         string
	RevisedPrompt string
}

// Config 合成配置
type Config struct {
	Model   string        `yaml:"model" env:"MODEL"`
	Size    string        `yaml:"size" env:"SIZE"`
	Quality string        `yaml:"quality" env:"QUALITY"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Model:   "gpt-image-1",
		Size:    "1024x1024",
		Quality: "high",
		Timeout: 120 * time.Second,
	}
}

// Observer 接收合成结果统计
type Observer interface {
	RecordSynthesis(mode, status string, duration time.Duration)
}

// Service 图像合成服务
type Service struct {
	provider   image.Provider
	cfg        Config
	httpClient *http.Client
	observer   Observer
	logger     *zap.Logger
}

// NewService 创建合成服务
func NewService(provider image.Provider, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.Size == "" {
		cfg.Size = def.Size
	}
	if cfg.Quality == "" {
		cfg.Quality = def.Quality
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider:   provider,
		cfg:        cfg,
		httpClient: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger:     logger.With(zap.String("component", "synthesis")),
	}
}

// WithHTTPClient 替换下载结果图使用的客户端
func (s *Service) WithHTTPClient(c *http.Client) *Service {
	if c != nil {
		s.httpClient = c
	}
	return s
}

// WithObserver 设置指标观察者
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Configured 报告后端是否可用
func (s *Service) Configured() bool {
	if s == nil || s.provider == nil {
		return false
	}
	if c, ok := s.provider.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// EditPrompt 把用户提示词包装为编辑模式的商品图指令
func EditPrompt(prompt string) string {
	return fmt.Sprintf("create a professional product image: %s. Ensure high-quality commercial aesthetic with clean background and professional lighting.", prompt)
}

// Synthesize 生成一张图片。参考图非空时走编辑模式。
func (s *Service) Synthesize(ctx context.Context, prompt string, referenceImages []string) (*Result, error) {
	if !s.Configured() {
		return nil, types.NewConfigurationError("OpenAI API key is not configured")
	}
	mode := ModeFor(referenceImages)

	var files []imagecodec.File
	if mode == ModeEdit {
		files = make([]imagecodec.File, 0, len(referenceImages))
		for i, ref := range referenceImages {
			data, err := imagecodec.Decode(ref)
			if err != nil {
				return nil, err
			}
			mimeType := imagecodec.DetectMIME(data)
			files = append(files, imagecodec.ToFile(data,
				fmt.Sprintf("reference-%d.%s", i, imagecodec.Extension(mimeType)), mimeType))
		}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.call(ctx, mode, prompt, files)
	if err != nil {
		s.record(mode, statusOf(err), start)
		return nil, err
	}

	result, err := s.extract(ctx, resp)
	if err != nil {
		s.record(mode, statusOf(err), start)
		return nil, err
	}
	result.Mode = mode
	s.record(mode, "success", start)

	s.logger.Info("image synthesized",
		zap.String("mode", string(mode)),
		zap.String("model", result.Model),
		zap.Int("references", len(files)),
		zap.Int("bytes", len(result.ImageBytes)),
		zap.Duration("latency", time.Since(start)))

	return result, nil
}

func (s *Service) call(ctx context.Context, mode Mode, prompt string, files []imagecodec.File) (*image.GenerateResponse, error) {
	var (
		resp *image.GenerateResponse
		err  error
	)
	switch mode {
	case ModeEdit:
		inputs := make([]image.InputImage, len(files))
		for i, f := range files {
			inputs[i] = image.InputImage{Name: f.Name, MimeType: f.MimeType, Data: f.Reader()}
			s.logger.Debug("edit input", zap.String("file", imagecodec.Describe(f)))
		}
		resp, err = s.provider.Edit(ctx, &image.EditRequest{
			Images:  inputs,
			Prompt:  EditPrompt(prompt),
			Model:   s.cfg.Model,
			N:       1,
			Size:    s.cfg.Size,
			Quality: s.cfg.Quality,
		})
	default:
		resp, err = s.provider.Generate(ctx, &image.GenerateRequest{
			Prompt:  prompt,
			Model:   s.cfg.Model,
			N:       1,
			Size:    s.cfg.Size,
			Quality: s.cfg.Quality,
		})
	}
	if err != nil {
		return nil, s.wrapProviderError(err)
	}
	return resp, nil
}

func (s *Service) wrapProviderError(err error) error {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		if llmErr.Code == llm.ErrProviderUnavailable {
			return types.NewConfigurationError(llmErr.Message).WithProvider(llmErr.Provider)
		}
		return types.NewError(types.ErrSynthesis, llmErr.Message).
			WithCause(err).
			WithProvider(llmErr.Provider).
			WithRetryable(llmErr.Retryable)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewError(types.ErrSynthesis, "image generation timed out").WithCause(err)
	}
	return types.NewError(types.ErrSynthesis, "image generation failed").WithCause(err)
}

func (s *Service) extract(ctx context.Context, resp *image.GenerateResponse) (*Result, error) {
	img := resp.First()
	if img == nil {
		return nil, types.NewError(types.ErrNoImageGenerated, "No image was generated")
	}

	var (
		data []byte
		err  error
	)
	if img.B64JSON != "" {
		data, err = imagecodec.Decode(img.B64JSON)
		if err != nil {
			return nil, types.NewError(types.ErrSynthesis, "provider returned an invalid image payload").WithCause(err)
		}
	} else {
		data, err = image.Fetch(ctx, s.httpClient, img.URL)
		if err != nil {
			return nil, types.NewError(types.ErrSynthesis, "failed to download generated image").WithCause(err)
		}
	}
	if len(data) == 0 {
		return nil, types.NewError(types.ErrNoImageGenerated, "No image was generated")
	}

	return &Result{
		ImageBytes:    data,
		MimeType:      imagecodec.DetectMIME(data),
		Model:         resp.Model,
		RevisedPrompt: img.RevisedPrompt,
	}, nil
}

func (s *Service) record(mode Mode, status string, start time.Time) {
	if s.observer != nil {
		s.observer.RecordSynthesis(string(mode), status, time.Since(start))
	}
}

func statusOf(err error) string {
	if code := types.GetErrorCode(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}
