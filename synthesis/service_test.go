package synthesis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/productshot/llm"
	"github.com/BaSui01/productshot/llm/image"
	"github.com/BaSui01/productshot/testutil/fixtures"
	"github.com/BaSui01/productshot/testutil/mocks"
	"github.com/BaSui01/productshot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type synthesisCall struct {
	mode   string
	status string
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []synthesisCall
}

func (o *recordingObserver) RecordSynthesis(mode, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, synthesisCall{mode: mode, status: status})
}

func newService(p image.Provider) *Service {
	return NewService(p, DefaultConfig(), zap.NewNop())
}

func TestSynthesize_TextToImage(t *testing.T) {
	provider := mocks.NewMockImageProvider(fixtures.TinyPNGBase64())
	obs := &recordingObserver{}
	svc := newService(provider).WithObserver(obs)

	res, err := svc.Synthesize(context.Background(), "red sneaker", nil)
	require.NoError(t, err)

	assert.Equal(t, ModeGenerate, res.Mode)
	assert.Equal(t, "image/png", res.MimeType)
	assert.Equal(t, fixtures.TinyPNG(), res.ImageBytes)

	calls := provider.GenerateCalls()
	require.Len(t, calls, 1)
	assert.Empty(t, provider.EditCalls())
	assert.Equal(t, "red sneaker", calls[0].Prompt)
	assert.Equal(t, "1024x1024", calls[0].Size)
	assert.Equal(t, "high", calls[0].Quality)
	assert.Equal(t, 1, calls[0].N)

	require.Len(t, obs.calls, 1)
	assert.Equal(t, synthesisCall{mode: "generate", status: "success"}, obs.calls[0])
}

func TestSynthesize_EditSendsAllReferencesInOrder(t *testing.T) {
	provider := mocks.NewMockImageProvider(fixtures.TinyPNGBase64())
	svc := newService(provider)

	refs := []string{fixtures.TinyPNGBase64(), fixtures.TinyJPEGBase64()}
	res, err := svc.Synthesize(context.Background(), "red sneaker", refs)
	require.NoError(t, err)
	assert.Equal(t, ModeEdit, res.Mode)

	assert.Empty(t, provider.GenerateCalls())
	edits := provider.EditCalls()
	require.Len(t, edits, 1)

	edit := edits[0]
	assert.Equal(t,
		"create a professional product image: red sneaker. Ensure high-quality commercial aesthetic with clean background and professional lighting.",
		edit.Request.Prompt)
	require.Len(t, edit.Images, 2)
	assert.Equal(t, "reference-0.png", edit.Images[0].Name)
	assert.Equal(t, "image/png", edit.Images[0].MimeType)
	assert.Equal(t, fixtures.TinyPNG(), edit.Images[0].Data)
	assert.Equal(t, "reference-1.jpg", edit.Images[1].Name)
	assert.Equal(t, "image/jpeg", edit.Images[1].MimeType)
	assert.Equal(t, fixtures.TinyJPEG(), edit.Images[1].Data)
}

func TestSynthesize_SingleReferenceUsesEdit(t *testing.T) {
	provider := mocks.NewMockImageProvider(fixtures.TinyPNGBase64())
	_, err := newService(provider).Synthesize(context.Background(), "mug", []string{fixtures.TinyPNGBase64()})
	require.NoError(t, err)
	assert.Len(t, provider.EditCalls(), 1)
	assert.Empty(t, provider.GenerateCalls())
}

func TestSynthesize_UndecodableReferenceSkipsProvider(t *testing.T) {
	provider := mocks.NewMockImageProvider(fixtures.TinyPNGBase64())
	_, err := newService(provider).Synthesize(context.Background(), "mug", []string{"%%%not-base64%%%"})
	require.Error(t, err)
	assert.Equal(t, types.ErrDecode, types.GetErrorCode(err))
	assert.Zero(t, provider.TotalCalls())
}

func TestSynthesize_NoImageGenerated(t *testing.T) {
	tests := []struct {
		name   string
		images []image.ImageData
	}{
		{"empty list", nil},
		{"empty payload", []image.ImageData{{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mocks.NewMockImageProvider("").WithImages(tt.images...)
			obs := &recordingObserver{}
			_, err := newService(provider).WithObserver(obs).Synthesize(context.Background(), "mug", nil)
			require.Error(t, err)

			e, ok := types.AsError(err)
			require.True(t, ok)
			assert.Equal(t, types.ErrNoImageGenerated, e.Code)
			assert.Equal(t, "No image was generated", e.Message)
			require.Len(t, obs.calls, 1)
			assert.Equal(t, "no_image_generated", obs.calls[0].status)
		})
	}
}

func TestSynthesize_ProviderErrorIsSynthesisError(t *testing.T) {
	upstream := &llm.Error{
		Code:       llm.ErrInvalidRequest,
		Message:    "Invalid image file",
		HTTPStatus: http.StatusBadRequest,
		Provider:   "openai-image",
	}
	provider := mocks.NewMockImageProvider("").WithError(upstream)

	_, err := newService(provider).Synthesize(context.Background(), "mug", nil)
	require.Error(t, err)

	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrSynthesis, e.Code)
	assert.Equal(t, "Invalid image file", e.Message)
	assert.Equal(t, "openai-image", e.Provider)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, 1, provider.TotalCalls())
}

func TestSynthesize_PlainErrorIsSynthesisError(t *testing.T) {
	provider := mocks.NewMockImageProvider("").WithError(errors.New("connection reset"))
	_, err := newService(provider).Synthesize(context.Background(), "mug", nil)
	assert.Equal(t, types.ErrSynthesis, types.GetErrorCode(err))
}

func TestSynthesize_UnavailableProviderIsConfigurationError(t *testing.T) {
	provider := mocks.NewMockImageProvider("").WithError(&llm.Error{
		Code:     llm.ErrProviderUnavailable,
		Message:  "OpenAI API key is not configured",
		Provider: "openai-image",
	})
	_, err := newService(provider).Synthesize(context.Background(), "mug", nil)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestSynthesize_NotConfigured(t *testing.T) {
	provider := mocks.NewMockImageProvider(fixtures.TinyPNGBase64()).WithUnconfigured()
	svc := newService(provider)
	assert.False(t, svc.Configured())

	_, err := svc.Synthesize(context.Background(), "mug", nil)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
	assert.Zero(t, provider.TotalCalls())

	assert.False(t, newService(nil).Configured())
}

func TestSynthesize_DownloadsURLResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(fixtures.TinyPNG())
	}))
	defer srv.Close()

	provider := mocks.NewMockImageProvider("").WithImages(image.ImageData{URL: srv.URL + "/out.png"})
	res, err := newService(provider).WithHTTPClient(srv.Client()).Synthesize(context.Background(), "mug", nil)
	require.NoError(t, err)
	assert.Equal(t, fixtures.TinyPNG(), res.ImageBytes)
}

func TestSynthesize_InvalidPayload(t *testing.T) {
	provider := mocks.NewMockImageProvider("@@not base64@@")
	_, err := newService(provider).Synthesize(context.Background(), "mug", nil)
	assert.Equal(t, types.ErrSynthesis, types.GetErrorCode(err))
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeGenerate, ModeFor(nil))
	assert.Equal(t, ModeGenerate, ModeFor([]string{}))
	assert.Equal(t, ModeEdit, ModeFor([]string{"x"}))
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(nil, Config{}, nil)
	assert.Equal(t, "1024x1024", svc.cfg.Size)
	assert.Equal(t, "high", svc.cfg.Quality)
	assert.Equal(t, 120*time.Second, svc.cfg.Timeout)
}
