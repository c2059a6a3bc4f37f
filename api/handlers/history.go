package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BaSui01/productshot/history"
	"github.com/BaSui01/productshot/types"
	"go.uber.org/zap"
)

// HistoryLister 读取最近的生成记录，*history.Store 满足该接口
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Record, error)
}

// HistoryResponse 是 GET /history 的响应体
type HistoryResponse struct {
	Items []history.Record `json:"items"`
}

// HistoryHandler 处理生成历史查询
type HistoryHandler struct {
	store  HistoryLister
	logger *zap.Logger
}

// NewHistoryHandler 创建历史处理器。store 为 nil 时端点返回 404。
func NewHistoryHandler(store HistoryLister, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{store: store, logger: logger}
}

// HandleList 处理 GET /history?limit=N
// @Summary 生成历史
// @Description 按时间倒序返回最近的生成记录
// @Tags 历史
// @Produce json
// @Param limit query int false "条数，默认 20，最大 100"
// @Success 200 {object} HistoryResponse "历史记录"
// @Failure 400 {object} types.ErrorResponse "无效参数"
// @Failure 404 {object} types.ErrorResponse "未启用"
// @Router /history [get]
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrMethodNotAllowed, "Method not allowed", h.logger)
		return
	}
	if h.store == nil {
		WriteError(w, types.NewError(types.ErrHistoryNotEnabled, "History is not enabled"), h.logger)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, types.NewValidationError("limit must be a non-negative integer"), h.logger)
			return
		}
		limit = n
	}

	records, err := h.store.List(r.Context(), history.ClampLimit(limit))
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "Failed to load history").WithCause(err), h.logger)
		return
	}
	if records == nil {
		records = []history.Record{}
	}

	WriteJSON(w, http.StatusOK, HistoryResponse{Items: records})
}
