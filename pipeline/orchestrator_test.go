package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/productshot/llm"
	"github.com/BaSui01/productshot/refine"
	"github.com/BaSui01/productshot/storage"
	"github.com/BaSui01/productshot/synthesis"
	"github.com/BaSui01/productshot/testutil"
	"github.com/BaSui01/productshot/testutil/fixtures"
	"github.com/BaSui01/productshot/testutil/mocks"
	"github.com/BaSui01/productshot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const publicBase = "https://cdn.example.com"

type harness struct {
	chat    *mocks.MockProvider
	images  *mocks.MockImageProvider
	backend *mocks.MockBackend
	orch    *Orchestrator
	obs     *stepObserver
	rec     *memoryRecorder
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		chat:    mocks.NewMockProvider().WithResponse("studio shot of a red sneaker"),
		images:  mocks.NewMockImageProvider(fixtures.TinyPNGBase64()),
		backend: mocks.NewMockBackend(),
		obs:     &stepObserver{},
		rec:     &memoryRecorder{},
	}
	logger := zap.NewNop()
	storeCfg := storage.DefaultConfig()
	storeCfg.Driver = "memory"
	storeCfg.PublicBaseURL = publicBase

	h.orch = New(
		refine.NewService(h.chat, refine.DefaultConfig(), logger),
		synthesis.NewService(h.images, synthesis.DefaultConfig(), logger),
		storage.NewGateway(h.backend, storeCfg, logger),
		cfg, logger,
	).WithObserver(h.obs).WithRecorder(h.rec)
	return h
}

type stepObserver struct {
	mu       sync.Mutex
	steps    []string
	requests []string
}

func (o *stepObserver) RecordPipelineRequest(operation, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, operation+":"+status)
}

func (o *stepObserver) RecordPipelineStep(step string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step)
}

type memoryRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
	ctxErrs  []error
	err      error
}

func (r *memoryRecorder) RecordOutcome(ctx context.Context, o Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

func (r *memoryRecorder) all() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

func TestGenerate_TextToImage(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	resp, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{Prompt: "red sneaker"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.ImageURL, publicBase+"/generated-images/generated-"), resp.ImageURL)
	assert.True(t, strings.HasSuffix(resp.ImageURL, ".png"))
	assert.Empty(t, resp.ReferenceURLs)

	assert.Len(t, h.images.GenerateCalls(), 1)
	assert.Empty(t, h.images.EditCalls())
	assert.Zero(t, h.chat.CallCount(), "refinement is off by default")

	puts := h.backend.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, storage.BucketGeneratedImages, puts[0].Bucket)
	assert.Equal(t, "image/png", puts[0].ContentType)

	assert.Equal(t, []string{StepValidate, StepSynthesize, StepPersist}, h.obs.steps)
	assert.Equal(t, []string{"generate:success"}, h.obs.requests)
}

func TestGenerate_OneReferenceUsesEditAndUploadsFirst(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	resp, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{
		Prompt:          "red sneaker",
		ReferenceImages: []string{fixtures.TinyPNGBase64()},
	})
	require.NoError(t, err)

	require.Len(t, resp.ReferenceURLs, 1)
	assert.True(t, strings.HasPrefix(resp.ReferenceURLs[0], publicBase+"/user-images/reference-"))

	puts := h.backend.Puts()
	require.Len(t, puts, 2)
	assert.Equal(t, storage.BucketUserImages, puts[0].Bucket)
	assert.Equal(t, storage.BucketGeneratedImages, puts[1].Bucket)

	edits := h.images.EditCalls()
	require.Len(t, edits, 1)
	require.Len(t, edits[0].Images, 1)
	assert.Equal(t, fixtures.TinyPNG(), edits[0].Images[0].Data)
	assert.Empty(t, h.images.GenerateCalls())
}

func TestGenerate_ReferenceURLsKeepInputOrder(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(map[bool]string{false: "sequential", true: "parallel"}[parallel], func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ParallelUploads = parallel
			h := newHarness(t, cfg)

			refs := []string{fixtures.TinyPNGBase64(), fixtures.TinyJPEGBase64(), fixtures.TinyPNGBase64()}
			resp, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{Prompt: "mug", ReferenceImages: refs})
			require.NoError(t, err)
			require.Len(t, resp.ReferenceURLs, 3)

			assert.True(t, strings.HasSuffix(resp.ReferenceURLs[0], ".png"))
			assert.True(t, strings.HasSuffix(resp.ReferenceURLs[1], ".jpg"))
			assert.True(t, strings.HasSuffix(resp.ReferenceURLs[2], ".png"))
			assert.Len(t, h.backend.Keys(storage.BucketUserImages), 3)
		})
	}
}

func TestGenerate_IdenticalRequestsYieldDistinctURLs(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	req := types.GenerationRequest{Prompt: "red sneaker"}

	first, err := h.orch.Generate(testutil.TestContext(t), req)
	require.NoError(t, err)
	second, err := h.orch.Generate(testutil.TestContext(t), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ImageURL, second.ImageURL)
	assert.Len(t, h.backend.Keys(storage.BucketGeneratedImages), 2)
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(*Config)
		req     types.GenerationRequest
		message string
	}{
		{"empty prompt", nil, types.GenerationRequest{}, "Prompt is required"},
		{"whitespace prompt", nil, types.GenerationRequest{Prompt: " \t\n"}, "Prompt is required"},
		{
			"references required",
			func(c *Config) { c.RequireReferences = true },
			types.GenerationRequest{Prompt: "mug"},
			"At least one reference image is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			h := newHarness(t, cfg)

			_, err := h.orch.Generate(testutil.TestContext(t), tt.req)
			require.Error(t, err)
			e, ok := types.AsError(err)
			require.True(t, ok)
			assert.Equal(t, types.ErrValidation, e.Code)
			assert.Equal(t, tt.message, e.Message)

			assert.Zero(t, h.images.TotalCalls())
			assert.Empty(t, h.backend.Puts())
			assert.Empty(t, h.rec.all(), "validation failures are not recorded")
		})
	}
}

func TestGenerate_InvalidBase64SkipsSynthesis(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	_, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{
		Prompt:          "mug",
		ReferenceImages: []string{fixtures.TinyPNGBase64(), "not base64 at all!!"},
	})
	require.Error(t, err)
	testutil.AssertErrorCode(t, err, types.ErrDecode)
	assert.Equal(t, 500, types.StatusForCode(types.GetErrorCode(err)))

	assert.Zero(t, h.images.TotalCalls())
	assert.Empty(t, h.backend.Puts(), "references are decoded before any upload")

	outcomes := h.rec.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, string(types.ErrDecode), outcomes[0].ErrorCode)
}

func TestGenerate_ValidBase64ButNotImage(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	_, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{
		Prompt:          "mug",
		ReferenceImages: []string{base64.StdEncoding.EncodeToString([]byte("plain text"))},
	})
	testutil.AssertErrorCode(t, err, types.ErrDecode)
	assert.Zero(t, h.images.TotalCalls())
}

func TestGenerate_ConfigurationChecks(t *testing.T) {
	logger := zap.NewNop()
	images := mocks.NewMockImageProvider(fixtures.TinyPNGBase64())
	gateway := storage.NewGateway(mocks.NewMockBackend(), storage.Config{PublicBaseURL: publicBase}, logger)

	t.Run("provider", func(t *testing.T) {
		orch := New(nil, synthesis.NewService(images.WithUnconfigured(), synthesis.DefaultConfig(), logger), gateway, DefaultConfig(), logger)
		_, err := orch.Generate(context.Background(), types.GenerationRequest{Prompt: "mug"})
		e, ok := types.AsError(err)
		require.True(t, ok)
		assert.Equal(t, types.ErrConfiguration, e.Code)
		assert.Equal(t, "OpenAI API key is not configured", e.Message)
	})

	t.Run("storage", func(t *testing.T) {
		synth := synthesis.NewService(mocks.NewMockImageProvider(fixtures.TinyPNGBase64()), synthesis.DefaultConfig(), logger)
		orch := New(nil, synth, storage.NewGateway(nil, storage.Config{}, logger), DefaultConfig(), logger)
		_, err := orch.Generate(context.Background(), types.GenerationRequest{Prompt: "mug"})
		e, ok := types.AsError(err)
		require.True(t, ok)
		assert.Equal(t, types.ErrConfiguration, e.Code)
		assert.Equal(t, "Storage is not configured", e.Message)
	})

	t.Run("prompt checked first", func(t *testing.T) {
		orch := New(nil, nil, nil, DefaultConfig(), logger)
		_, err := orch.Generate(context.Background(), types.GenerationRequest{})
		testutil.AssertErrorCode(t, err, types.ErrValidation)
	})
}

func TestGenerate_ReferenceUploadFailureAborts(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.backend.FailBucket(storage.BucketUserImages, errors.New("quota exceeded"))

	_, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{
		Prompt:          "mug",
		ReferenceImages: []string{fixtures.TinyPNGBase64()},
	})
	testutil.AssertErrorCode(t, err, types.ErrStorageWrite)
	assert.Zero(t, h.images.TotalCalls())
}

func TestGenerate_SecondReferenceUploadFailureStopsIngest(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.backend.FailOnPut(2)

	_, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{
		Prompt:          "mug",
		ReferenceImages: []string{fixtures.TinyPNGBase64(), fixtures.TinyPNGBase64(), fixtures.TinyPNGBase64()},
	})
	testutil.AssertErrorCode(t, err, types.ErrStorageWrite)
	assert.Len(t, h.backend.Keys(storage.BucketUserImages), 1)
	assert.Zero(t, h.images.TotalCalls())
}

func TestGenerate_ResultUploadFailureKeepsReferences(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.backend.FailBucket(storage.BucketGeneratedImages, errors.New("network down"))

	_, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{
		Prompt:          "mug",
		ReferenceImages: []string{fixtures.TinyPNGBase64()},
	})
	testutil.AssertErrorCode(t, err, types.ErrStorageWrite)
	assert.Len(t, h.backend.Keys(storage.BucketUserImages), 1, "no compensating delete")

	outcomes := h.rec.all()
	require.Len(t, outcomes, 1)
	assert.Len(t, outcomes[0].ReferenceURLs, 1)
	assert.Equal(t, string(synthesis.ModeEdit), outcomes[0].Mode)
}

func TestGenerate_SynthesisErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mocks.MockImageProvider)
		code  types.ErrorCode
	}{
		{"provider error", func(m *mocks.MockImageProvider) {
			m.WithError(&llm.Error{Code: llm.ErrUpstreamError, Message: "boom", Provider: "openai-image"})
		}, types.ErrSynthesis},
		{"no image", func(m *mocks.MockImageProvider) { m.WithImages() }, types.ErrNoImageGenerated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, DefaultConfig())
			tt.setup(h.images)

			_, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{Prompt: "mug"})
			testutil.AssertErrorCode(t, err, tt.code)
			assert.Empty(t, h.backend.Keys(storage.BucketGeneratedImages))
			assert.Equal(t, []string{"generate:" + strings.ToLower(string(tt.code))}, h.obs.requests)
		})
	}
}

func TestGenerate_RefineBeforeGenerate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RefineBeforeGenerate = true
	h := newHarness(t, cfg)

	_, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{Prompt: "red sneaker"})
	require.NoError(t, err)

	calls := h.images.GenerateCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "studio shot of a red sneaker", calls[0].Prompt)

	outcomes := h.rec.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, "red sneaker", outcomes[0].Prompt)
	assert.Equal(t, "studio shot of a red sneaker", outcomes[0].RefinedPrompt)
	assert.Equal(t, StatusSucceeded, outcomes[0].Status)
	assert.NotEmpty(t, outcomes[0].ImageKey)
}

func TestGenerate_RecorderErrorDoesNotFailRequest(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.rec.err = errors.New("database is locked")

	resp, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{Prompt: "mug"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ImageURL)
}

func TestGenerate_DetachedFromCallerCancellation(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := h.orch.Generate(ctx, types.GenerationRequest{Prompt: "mug"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ImageURL)
}

// stalledSynthesizer 阻塞直到上下文结束
type stalledSynthesizer struct{}

func (stalledSynthesizer) Configured() bool { return true }

func (stalledSynthesizer) Synthesize(ctx context.Context, _ string, _ []string) (*synthesis.Result, error) {
	<-ctx.Done()
	return nil, types.NewError(types.ErrSynthesis, "image request timed out").WithCause(ctx.Err())
}

func TestGenerate_RequestTimeoutBoundsDownstreamCalls(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestTimeout = 50 * time.Millisecond
	h := newHarness(t, cfg)
	h.orch.synthesizer = stalledSynthesizer{}

	start := time.Now()
	_, err := h.orch.Generate(testutil.TestContext(t), types.GenerationRequest{
		Prompt:          "mug",
		ReferenceImages: []string{fixtures.TinyPNGBase64()},
	})
	testutil.AssertErrorCode(t, err, types.ErrSynthesis)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)

	outcomes := h.rec.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Len(t, outcomes[0].ReferenceURLs, 1)
	assert.NoError(t, h.rec.ctxErrs[0], "outcome is recorded after the budget expires")
}

func TestRefine_RequestTimeoutReturnsOriginal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestTimeout = 30 * time.Millisecond
	h := newHarness(t, cfg)
	h.chat.WithDelay(time.Second)

	start := time.Now()
	resp, err := h.orch.Refine(testutil.TestContext(t), types.RefinementRequest{
		Prompt:          "mug",
		ReferenceImages: []string{fixtures.TinyPNGBase64()},
	})
	require.NoError(t, err)
	assert.Equal(t, "mug", resp.RefinedPrompt)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestNew_DefaultsRequestTimeout(t *testing.T) {
	o := New(nil, nil, nil, Config{}, nil)
	assert.Equal(t, DefaultConfig().RequestTimeout, o.cfg.RequestTimeout)
	assert.Equal(t, DefaultConfig().UploadConcurrency, o.cfg.UploadConcurrency)
}

func TestRefine(t *testing.T) {
	t.Run("vision failure falls back to text", func(t *testing.T) {
		h := newHarness(t, DefaultConfig())
		h.chat.WithCompletionFunc(func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			if req.Messages[len(req.Messages)-1].HasImages() {
				return nil, errors.New("vision unavailable")
			}
			return fixtures.SimpleResponse("text refined"), nil
		})

		resp, err := h.orch.Refine(testutil.TestContext(t), types.RefinementRequest{
			Prompt:          "mug",
			ReferenceImages: []string{fixtures.TinyPNGBase64()},
		})
		require.NoError(t, err)
		assert.Equal(t, "text refined", resp.RefinedPrompt)
	})

	t.Run("all failures return original prompt", func(t *testing.T) {
		h := newHarness(t, DefaultConfig())
		h.chat.WithError(errors.New("upstream down"))

		resp, err := h.orch.Refine(testutil.TestContext(t), types.RefinementRequest{
			Prompt:          "  mug  ",
			ReferenceImages: []string{fixtures.TinyPNGBase64()},
		})
		require.NoError(t, err)
		assert.Equal(t, "mug", resp.RefinedPrompt)
		assert.Equal(t, []string{"refine:success"}, h.obs.requests)
	})

	t.Run("empty prompt", func(t *testing.T) {
		h := newHarness(t, DefaultConfig())
		_, err := h.orch.Refine(testutil.TestContext(t), types.RefinementRequest{Prompt: "   "})
		e, ok := types.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "Prompt is required", e.Message)
		assert.Zero(t, h.chat.CallCount())
	})

	t.Run("not configured", func(t *testing.T) {
		logger := zap.NewNop()
		orch := New(refine.NewService(mocks.NewMockProvider().WithUnconfigured(), refine.DefaultConfig(), logger), nil, nil, DefaultConfig(), logger)
		_, err := orch.Refine(context.Background(), types.RefinementRequest{Prompt: "mug"})
		e, ok := types.AsError(err)
		require.True(t, ok)
		assert.Equal(t, types.ErrConfiguration, e.Code)
		assert.Equal(t, "OpenAI API key is not configured", e.Message)

		_, err = New(nil, nil, nil, DefaultConfig(), logger).Refine(context.Background(), types.RefinementRequest{Prompt: "mug"})
		testutil.AssertErrorCode(t, err, types.ErrConfiguration)
	})
}

func TestRecorderFunc(t *testing.T) {
	var got Outcome
	var r Recorder = RecorderFunc(func(_ context.Context, o Outcome) error {
		got = o
		return nil
	})
	require.NoError(t, r.RecordOutcome(context.Background(), Outcome{Prompt: "mug"}))
	assert.Equal(t, "mug", got.Prompt)
}
