package image

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BaSui01/productshot/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL}).WithHTTPClient(srv.Client())
}

func TestOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{})
	assert.Equal(t, "openai-image", p.Name())
	assert.Equal(t, "gpt-image-1", p.Model())
	assert.False(t, p.Configured())
}

func TestOpenAIProvider_NotConfigured(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{})

	_, err := p.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrProviderUnavailable, llmErr.Code)

	_, err = p.Edit(context.Background(), &EditRequest{Prompt: "x"})
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrProviderUnavailable, llmErr.Code)
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var captured map[string]any
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"created":1700000000,"data":[{"b64_json":"AAAA"}],"usage":{"input_tokens":12,"output_tokens":4160}}`))
	})

	resp, err := p.Generate(context.Background(), &GenerateRequest{Prompt: "red sneaker", Quality: "high"})
	require.NoError(t, err)
	require.NotNil(t, resp.First())
	assert.Equal(t, "AAAA", resp.First().B64JSON)
	assert.Equal(t, 4160, resp.Usage.OutputTokens)

	assert.Equal(t, "gpt-image-1", captured["model"])
	assert.Equal(t, "red sneaker", captured["prompt"])
	assert.Equal(t, "1024x1024", captured["size"])
	assert.Equal(t, "high", captured["quality"])
	assert.EqualValues(t, 1, captured["n"])
	_, hasFormat := captured["response_format"]
	assert.False(t, hasFormat)
}

func TestOpenAIProvider_Edit_SendsEveryImage(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/edits", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["image[]"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.png", files[0].Filename)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "b.jpg", files[1].Filename)
		assert.Equal(t, "image/jpeg", files[1].Header.Get("Content-Type"))

		f, err := files[1].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "second", string(data))

		assert.Equal(t, "combine", r.FormValue("prompt"))
		assert.Equal(t, "1024x1024", r.FormValue("size"))
		assert.Equal(t, "high", r.FormValue("quality"))
		_, _ = w.Write([]byte(`{"created":1700000000,"data":[{"b64_json":"BBBB"}]}`))
	})

	resp, err := p.Edit(context.Background(), &EditRequest{
		Images: []InputImage{
			{Name: "a.png", MimeType: "image/png", Data: strings.NewReader("first")},
			{Name: "b.jpg", MimeType: "image/jpeg", Data: strings.NewReader("second")},
		},
		Prompt:  "combine",
		Size:    "1024x1024",
		Quality: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, "BBBB", resp.First().B64JSON)
}

func TestOpenAIProvider_Edit_RequiresImages(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k"})
	_, err := p.Edit(context.Background(), &EditRequest{Prompt: "x"})

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrInvalidRequest, llmErr.Code)
}

func TestOpenAIProvider_MapsErrors(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	})

	_, err := p.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrRateLimited, llmErr.Code)
	assert.Equal(t, "Rate limit reached", llmErr.Message)
	assert.True(t, llmErr.Retryable)
}

func TestGenerateResponse_First(t *testing.T) {
	var nilResp *GenerateResponse
	assert.Nil(t, nilResp.First())
	assert.Nil(t, (&GenerateResponse{Images: []ImageData{{}}}).First())

	resp := &GenerateResponse{Images: []ImageData{{}, {URL: "https://cdn/x.png"}}}
	assert.Equal(t, "https://cdn/x.png", resp.First().URL)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.Client(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.Error(t, err)
}
