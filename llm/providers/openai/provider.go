// =============================================================================
// OpenAI Chat Completions Provider
// =============================================================================
// 仅实现同步 Completion，支持 image_url 多模态段。
// BaseURL 可指向任何 OpenAI 兼容网关。
// =============================================================================

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/productshot/internal/tlsutil"
	"github.com/BaSui01/productshot/llm"
	"github.com/BaSui01/productshot/llm/providers"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o"
	providerName   = "openai"
)

// Config holds the configuration for the chat provider.
type Config struct {
	providers.BaseProviderConfig `yaml:",inline"`

	// Organization is sent as OpenAI-Organization when set.
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`

	// EndpointPath defaults to "/v1/chat/completions".
	EndpointPath string `json:"endpoint_path,omitempty" yaml:"endpoint_path,omitempty"`

	// ModelsEndpoint defaults to "/v1/models".
	ModelsEndpoint string `json:"models_endpoint,omitempty" yaml:"models_endpoint,omitempty"`
}

// Provider 是 OpenAI 聊天补全客户端
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewProvider creates a chat provider. A zero Timeout defaults to 60s.
func NewProvider(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if cfg.ModelsEndpoint == "" {
		cfg.ModelsEndpoint = "/v1/models"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("provider", providerName)),
	}
}

// WithHTTPClient replaces the HTTP client (tests use httptest clients).
func (p *Provider) WithHTTPClient(c *http.Client) *Provider {
	if c != nil {
		p.client = c
	}
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string { return providerName }

// Configured 报告是否设置了 API Key
func (p *Provider) Configured() bool {
	return strings.TrimSpace(p.cfg.APIKey) != ""
}

func (p *Provider) endpoint(path string) string {
	return fmt.Sprintf("%s%s", strings.TrimRight(p.cfg.BaseURL, "/"), path)
}

func (p *Provider) buildHeaders(req *http.Request) {
	providers.BearerTokenHeaders(req, p.cfg.APIKey)
	if p.cfg.Organization != "" {
		req.Header.Set("OpenAI-Organization", p.cfg.Organization)
	}
}

// HealthCheck verifies the provider is reachable.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(p.cfg.ModelsEndpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("%s health check failed: status=%d msg=%s", providerName, resp.StatusCode, msg)
	}

	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

// Completion performs a non-streaming chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if !p.Configured() {
		return nil, &llm.Error{
			Code:       llm.ErrProviderUnavailable,
			Message:    "OpenAI API key is not configured",
			HTTPStatus: http.StatusInternalServerError,
			Provider:   providerName,
		}
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	body := providers.OpenAICompatRequest{
		Model:       providers.ChooseModel(req, p.cfg.Model, defaultModel),
		Messages:    providers.ConvertMessagesToOpenAI(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(p.cfg.EndpointPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.TransportError(err, providerName)
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, providerName)
	}

	var oaResp providers.OpenAICompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, providers.TransportError(err, providerName)
	}

	p.logger.Debug("chat completion finished",
		zap.String("model", body.Model),
		zap.String("trace_id", req.TraceID),
		zap.Int("choices", len(oaResp.Choices)),
		zap.Duration("latency", time.Since(start)),
	)

	return providers.ToLLMChatResponse(oaResp, providerName), nil
}
