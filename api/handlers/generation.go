package handlers

import (
	"context"
	"net/http"

	"github.com/BaSui01/productshot/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🖼️ 生成与润色 Handler
// =============================================================================

// Pipeline 是 HTTP 层依赖的编排能力，*pipeline.Orchestrator 满足该接口
type Pipeline interface {
	Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResponse, error)
	Refine(ctx context.Context, req types.RefinementRequest) (*types.RefinementResponse, error)
}

// GenerationHandler 处理 /generate 与 /refine
type GenerationHandler struct {
	pipeline Pipeline
	logger   *zap.Logger
}

// NewGenerationHandler 创建生成处理器
func NewGenerationHandler(p Pipeline, logger *zap.Logger) *GenerationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationHandler{
		pipeline: p,
		logger:   logger.With(zap.String("component", "generation_handler")),
	}
}

// Generate 返回带 CORS 与方法校验的 /generate 处理函数
func (h *GenerationHandler) Generate() http.HandlerFunc {
	return PostOnly(h.HandleGenerate, h.logger)
}

// Refine 返回带 CORS 与方法校验的 /refine 处理函数
func (h *GenerationHandler) Refine() http.HandlerFunc {
	return PostOnly(h.HandleRefine, h.logger)
}

// HandleGenerate 处理图像生成请求
// @Summary 生成商品图
// @Description 根据提示词与可选参考图生成图像并返回公开 URL
// @Tags 生成
// @Accept json
// @Produce json
// @Param request body types.GenerationRequest true "生成请求"
// @Success 200 {object} types.GenerationResponse "生成结果"
// @Failure 400 {object} types.ErrorResponse "无效请求"
// @Failure 500 {object} types.ErrorResponse "内部错误"
// @Router /generate [post]
func (h *GenerationHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerationRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	resp, err := h.pipeline.Generate(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.logger.Info("image generated",
		zap.String("image_url", resp.ImageURL),
		zap.Int("references", len(resp.ReferenceURLs)),
	)
	WriteJSON(w, http.StatusOK, resp)
}

// HandleRefine 处理提示词润色请求
// @Summary 润色提示词
// @Description 使用视觉或文本模型改写提示词，失败时回退原文
// @Tags 生成
// @Accept json
// @Produce json
// @Param request body types.RefinementRequest true "润色请求"
// @Success 200 {object} types.RefinementResponse "润色结果"
// @Failure 400 {object} types.ErrorResponse "无效请求"
// @Failure 500 {object} types.ErrorResponse "未配置"
// @Router /refine [post]
func (h *GenerationHandler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	var req types.RefinementRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	resp, err := h.pipeline.Refine(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}
