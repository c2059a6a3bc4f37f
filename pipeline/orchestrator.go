package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/BaSui01/productshot/internal/ctxkeys"
	"github.com/BaSui01/productshot/internal/imagecodec"
	"github.com/BaSui01/productshot/refine"
	"github.com/BaSui01/productshot/storage"
	"github.com/BaSui01/productshot/synthesis"
	"github.com/BaSui01/productshot/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	referencePrefix   = "reference"
	generatedPrefix   = "generated"
	resultContentType = "image/png"
)

// Step names reported to metrics and spans.
const (
	StepValidate   = "validate"
	StepIngest     = "ingest_references"
	StepRefine     = "refine"
	StepSynthesize = "synthesize"
	StepPersist    = "persist_result"
)

// Refiner 润色提示词，永不失败
type Refiner interface {
	Refine(ctx context.Context, prompt string, referenceImages []string) refine.Result
	Configured() bool
}

// Synthesizer 生成一张图片
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string, referenceImages []string) (*synthesis.Result, error)
	Configured() bool
}

// Storer 持久化二进制产物
type Storer interface {
	Store(ctx context.Context, bucket, prefix string, data []byte, mimeType string) (storage.Artifact, error)
	Configured() bool
}

// Observer 接收流水线指标
type Observer interface {
	RecordPipelineRequest(operation, status string, duration time.Duration)
	RecordPipelineStep(step string, duration time.Duration)
}

// Config 编排配置
type Config struct {
	RequireReferences    bool `yaml:"require_references" env:"REQUIRE_REFERENCES"`
	RefineBeforeGenerate bool `yaml:"refine_before_generate" env:"REFINE_BEFORE_GENERATE"`
	ParallelUploads      bool `yaml:"parallel_uploads" env:"PARALLEL_UPLOADS"`
	UploadConcurrency    int  `yaml:"upload_concurrency" env:"UPLOAD_CONCURRENCY"`

	// RequestTimeout 单个请求的总预算，覆盖全部下游调用；须小于 HTTP 写超时
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// DefaultConfig 返回默认配置：参考图可选、顺序上传、生成前不润色。
func DefaultConfig() Config {
	return Config{
		UploadConcurrency: 4,
		RequestTimeout:    170 * time.Second,
	}
}

// Orchestrator 编排生成与润色请求
type Orchestrator struct {
	refiner     Refiner
	synthesizer Synthesizer
	storer      Storer
	recorder    Recorder
	observer    Observer
	cfg         Config
	tracer      trace.Tracer
	logger      *zap.Logger
}

// New 创建编排器。refiner 可以为 nil，此时 Refine 返回配置错误。
func New(refiner Refiner, synthesizer Synthesizer, storer Storer, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.UploadConcurrency <= 0 {
		cfg.UploadConcurrency = DefaultConfig().UploadConcurrency
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		refiner:     refiner,
		synthesizer: synthesizer,
		storer:      storer,
		cfg:         cfg,
		tracer:      otel.Tracer("productshot/pipeline"),
		logger:      logger.With(zap.String("component", "pipeline")),
	}
}

// WithRecorder 设置生成历史记录器
func (o *Orchestrator) WithRecorder(r Recorder) *Orchestrator {
	o.recorder = r
	return o
}

// WithObserver 设置指标观察者
func (o *Orchestrator) WithObserver(obs Observer) *Orchestrator {
	o.observer = obs
	return o
}

// Generate 执行完整的生成流程。
func (o *Orchestrator) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResponse, error) {
	start := time.Now()
	ctx, cancel := o.detach(ctx)
	defer cancel()
	ctx, span := o.tracer.Start(ctx, "pipeline.generate", trace.WithAttributes(
		attribute.Int("pipeline.references", len(req.ReferenceImages)),
	))
	defer span.End()

	prompt := strings.TrimSpace(req.Prompt)
	err := o.step(ctx, StepValidate, func(context.Context) error {
		return o.validateGenerate(prompt, req.ReferenceImages)
	})
	if err != nil {
		o.finish(ctx, span, "generate", start, err)
		return nil, err
	}

	outcome := Outcome{
		Prompt:    prompt,
		Mode:      string(synthesis.ModeFor(req.ReferenceImages)),
		StartedAt: start,
	}
	resp, err := o.generate(ctx, prompt, req.ReferenceImages, &outcome)
	outcome.Duration = time.Since(start)
	o.finish(ctx, span, "generate", start, err)
	o.record(ctx, outcome, err)
	if err != nil {
		return nil, err
	}

	o.log(ctx).Info("image generated",
		zap.String("mode", outcome.Mode),
		zap.Int("references", len(resp.ReferenceURLs)),
		zap.String("image_url", resp.ImageURL),
		zap.Duration("latency", outcome.Duration))
	return resp, nil
}

func (o *Orchestrator) validateGenerate(prompt string, referenceImages []string) error {
	if prompt == "" {
		return types.NewValidationError("Prompt is required")
	}
	if o.cfg.RequireReferences && len(referenceImages) == 0 {
		return types.NewValidationError("At least one reference image is required")
	}
	if o.synthesizer == nil || !o.synthesizer.Configured() {
		return types.NewConfigurationError("OpenAI API key is not configured")
	}
	if o.storer == nil || !o.storer.Configured() {
		return types.NewConfigurationError("Storage is not configured")
	}
	return nil
}

func (o *Orchestrator) generate(ctx context.Context, prompt string, referenceImages []string, outcome *Outcome) (*types.GenerationResponse, error) {
	var referenceURLs []string
	if len(referenceImages) > 0 {
		err := o.step(ctx, StepIngest, func(ctx context.Context) error {
			urls, err := o.ingest(ctx, referenceImages)
			referenceURLs = urls
			return err
		})
		outcome.ReferenceURLs = referenceURLs
		if err != nil {
			return nil, err
		}
	}

	if o.cfg.RefineBeforeGenerate && o.refiner != nil {
		_ = o.step(ctx, StepRefine, func(ctx context.Context) error {
			res := o.refiner.Refine(ctx, prompt, referenceImages)
			if res.Text != prompt {
				outcome.RefinedPrompt = res.Text
			}
			prompt = res.Text
			return nil
		})
	}

	var result *synthesis.Result
	err := o.step(ctx, StepSynthesize, func(ctx context.Context) error {
		var err error
		result, err = o.synthesizer.Synthesize(ctx, prompt, referenceImages)
		return err
	})
	if err != nil {
		return nil, err
	}
	outcome.Mode = string(result.Mode)

	var artifact storage.Artifact
	err = o.step(ctx, StepPersist, func(ctx context.Context) error {
		var err error
		artifact, err = o.storer.Store(ctx, storage.BucketGeneratedImages, generatedPrefix, result.ImageBytes, resultContentType)
		return err
	})
	if err != nil {
		return nil, err
	}
	outcome.ImageURL = artifact.PublicURL
	outcome.ImageKey = artifact.Key

	return &types.GenerationResponse{
		ImageURL:      artifact.PublicURL,
		ReferenceURLs: referenceURLs,
	}, nil
}

type decodedReference struct {
	data     []byte
	mimeType string
}

// ingest 先严格解码全部参考图，再按输入顺序上传。
func (o *Orchestrator) ingest(ctx context.Context, referenceImages []string) ([]string, error) {
	decoded := make([]decodedReference, len(referenceImages))
	for i, ref := range referenceImages {
		data, format, err := imagecodec.DecodeImage(ref)
		if err != nil {
			o.log(ctx).Warn("reference image rejected", zap.Int("index", i), zap.Error(err))
			return nil, err
		}
		decoded[i] = decodedReference{data: data, mimeType: "image/" + string(format)}
	}

	urls := make([]string, len(decoded))
	upload := func(ctx context.Context, i int) error {
		artifact, err := o.storer.Store(ctx, storage.BucketUserImages, referencePrefix, decoded[i].data, decoded[i].mimeType)
		if err != nil {
			return err
		}
		urls[i] = artifact.PublicURL
		return nil
	}

	if !o.cfg.ParallelUploads || len(decoded) == 1 {
		for i := range decoded {
			if err := upload(ctx, i); err != nil {
				return urls[:i], err
			}
		}
		return urls, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.UploadConcurrency)
	for i := range decoded {
		g.Go(func() error { return upload(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return compact(urls), err
	}
	return urls, nil
}

// Refine 校验后润色提示词。
func (o *Orchestrator) Refine(ctx context.Context, req types.RefinementRequest) (*types.RefinementResponse, error) {
	start := time.Now()
	ctx, cancel := o.detach(ctx)
	defer cancel()
	ctx, span := o.tracer.Start(ctx, "pipeline.refine", trace.WithAttributes(
		attribute.Int("pipeline.references", len(req.ReferenceImages)),
	))
	defer span.End()

	prompt := strings.TrimSpace(req.Prompt)
	err := o.step(ctx, StepValidate, func(context.Context) error {
		if prompt == "" {
			return types.NewValidationError("Prompt is required")
		}
		if o.refiner == nil || !o.refiner.Configured() {
			return types.NewConfigurationError("OpenAI API key is not configured")
		}
		return nil
	})
	if err != nil {
		o.finish(ctx, span, "refine", start, err)
		return nil, err
	}

	var res refine.Result
	_ = o.step(ctx, StepRefine, func(ctx context.Context) error {
		res = o.refiner.Refine(ctx, prompt, req.ReferenceImages)
		return nil
	})
	span.SetAttributes(attribute.String("refine.path", string(res.Path)))
	o.finish(ctx, span, "refine", start, nil)

	return &types.RefinementResponse{RefinedPrompt: res.Text}, nil
}

// detach 脱离调用方的取消信号，改由 RequestTimeout 约束整个请求。
func (o *Orchestrator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.cfg.RequestTimeout)
}

// step 在子 span 中执行 fn 并记录耗时。
func (o *Orchestrator) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if o.observer != nil {
		o.observer.RecordPipelineStep(name, time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (o *Orchestrator) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = statusOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.log(ctx).Warn("pipeline request failed",
			zap.String("operation", operation),
			zap.String("code", string(types.GetErrorCode(err))),
			zap.Error(err))
	}
	if o.observer != nil {
		o.observer.RecordPipelineRequest(operation, status, time.Since(start))
	}
}

func (o *Orchestrator) record(ctx context.Context, outcome Outcome, err error) {
	if o.recorder == nil {
		return
	}
	outcome.Status = StatusSucceeded
	if err != nil {
		outcome.Status = StatusFailed
		outcome.ErrorCode = string(types.GetErrorCode(err))
		outcome.ErrorMessage = err.Error()
	}
	// 请求预算可能已耗尽，记录仍需完成
	if rerr := o.recorder.RecordOutcome(context.WithoutCancel(ctx), outcome); rerr != nil {
		o.log(ctx).Warn("failed to record generation outcome", zap.Error(rerr))
	}
}

// log 返回带请求 ID 的 logger
func (o *Orchestrator) log(ctx context.Context) *zap.Logger {
	if id, ok := ctxkeys.RequestID(ctx); ok {
		return o.logger.With(zap.String("request_id", id))
	}
	return o.logger
}

func statusOf(err error) string {
	if code := types.GetErrorCode(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

func compact(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
