package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/BaSui01/productshot/internal/tlsutil"
	"github.com/BaSui01/productshot/llm"
	"github.com/BaSui01/productshot/llm/providers"
)

const openAIImageProvider = "openai-image"

// OpenAIProvider 使用 OpenAI Images API 执行图像生成.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
}

// 新OpenAIProvider创建了新的OpenAI图像提供商.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	def := DefaultOpenAIConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	return &OpenAIProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
	}
}

// WithHTTPClient 替换 HTTP 客户端
func (p *OpenAIProvider) WithHTTPClient(c *http.Client) *OpenAIProvider {
	if c != nil {
		p.client = c
	}
	return p
}

func (p *OpenAIProvider) Name() string { return openAIImageProvider }

// Configured 报告是否设置了 API Key
func (p *OpenAIProvider) Configured() bool {
	return strings.TrimSpace(p.cfg.APIKey) != ""
}

// Model 返回默认模型
func (p *OpenAIProvider) Model() string { return p.cfg.Model }

type imagesRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imagesResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func (p *OpenAIProvider) endpoint(path string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + path
}

func (p *OpenAIProvider) notConfigured() error {
	return &llm.Error{
		Code:       llm.ErrProviderUnavailable,
		Message:    "OpenAI API key is not configured",
		HTTPStatus: http.StatusInternalServerError,
		Provider:   openAIImageProvider,
	}
}

func (p *OpenAIProvider) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if p.cfg.Organization != "" {
		req.Header.Set("OpenAI-Organization", p.cfg.Organization)
	}
}

// 从文本提示生成图像 。
func (p *OpenAIProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if !p.Configured() {
		return nil, p.notConfigured()
	}
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	body := imagesRequest{
		Model:          model,
		Prompt:         req.Prompt,
		N:              req.N,
		Size:           req.Size,
		Quality:        req.Quality,
		ResponseFormat: req.ResponseFormat,
	}
	if body.N == 0 {
		body.N = 1
	}
	if body.Size == "" {
		body.Size = "1024x1024"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint("/v1/images/generations"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	return p.do(httpReq, model)
}

// Edit 以多张参考图生成新图像，每张图作为一个 image[] 段提交。
func (p *OpenAIProvider) Edit(ctx context.Context, req *EditRequest) (*GenerateResponse, error) {
	if !p.Configured() {
		return nil, p.notConfigured()
	}
	if len(req.Images) == 0 {
		return nil, &llm.Error{
			Code:       llm.ErrInvalidRequest,
			Message:    "edit requires at least one image",
			HTTPStatus: http.StatusBadRequest,
			Provider:   openAIImageProvider,
		}
	}
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for i, img := range req.Images {
		if err := writeImagePart(writer, i, img); err != nil {
			return nil, err
		}
	}

	fields := map[string]string{
		"prompt":          req.Prompt,
		"model":           model,
		"size":            req.Size,
		"quality":         req.Quality,
		"response_format": req.ResponseFormat,
	}
	if req.N > 0 {
		fields["n"] = fmt.Sprintf("%d", req.N)
	}
	for _, key := range []string{"prompt", "model", "n", "size", "quality", "response_format"} {
		if v := fields[key]; v != "" {
			if err := writer.WriteField(key, v); err != nil {
				return nil, fmt.Errorf("failed to write field %s: %w", key, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint("/v1/images/edits"), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.authorize(httpReq)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	return p.do(httpReq, model)
}

// writeImagePart 写入带真实 Content-Type 的文件段，上游拒绝 application/octet-stream。
func writeImagePart(w *multipart.Writer, index int, img InputImage) error {
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("image-%d.png", index)
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if img.Data == nil {
		return fmt.Errorf("image %d has no data", index)
	}
	if _, err := io.Copy(part, img.Data); err != nil {
		return fmt.Errorf("failed to copy image: %w", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func (p *OpenAIProvider) do(httpReq *http.Request, model string) (*GenerateResponse, error) {
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.TransportError(err, openAIImageProvider)
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, openAIImageProvider)
	}

	var iResp imagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&iResp); err != nil {
		return nil, fmt.Errorf("failed to decode images response: %w", err)
	}

	images := make([]ImageData, len(iResp.Data))
	for i, d := range iResp.Data {
		images[i] = ImageData{
			URL:           d.URL,
			B64JSON:       d.B64JSON,
			RevisedPrompt: d.RevisedPrompt,
		}
	}

	out := &GenerateResponse{
		Provider: p.Name(),
		Model:    model,
		Images:   images,
		Usage: ImageUsage{
			ImagesGenerated: len(images),
		},
		CreatedAt: time.Unix(iResp.Created, 0),
	}
	if iResp.Usage != nil {
		out.Usage.InputTokens = iResp.Usage.InputTokens
		out.Usage.OutputTokens = iResp.Usage.OutputTokens
	}
	return out, nil
}
