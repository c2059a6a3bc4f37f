package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/BaSui01/productshot/types"
	"go.uber.org/zap"
)

// =============================================================================
// 📦 通用响应结构
// =============================================================================

// Response 运维端点（version 等）使用的统一包装
type Response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CORS 头，生成与润色端点对任意来源开放
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
)

// =============================================================================
// 🎯 响应辅助函数
// =============================================================================

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	// 头已写出，编码失败无法再改状态码
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess 写入成功响应
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteError 把错误写成 {error} 或 {error, details}。
// 4xx 只带消息；5xx 附带完整错误链。
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	body := types.ErrorResponse{Error: "Internal server error"}

	if apiErr, ok := types.AsError(err); ok {
		status = apiErr.HTTPStatus
		if status == 0 {
			status = types.StatusForCode(apiErr.Code)
		}
		body.Error = apiErr.Message
	} else if err != nil && err.Error() != "" {
		body.Error = err.Error()
	}

	if status >= http.StatusInternalServerError && err != nil {
		body.Details = err.Error()
	}

	if logger != nil {
		fields := []zap.Field{
			zap.String("code", string(types.GetErrorCode(err))),
			zap.String("message", body.Error),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("API error", fields...)
		} else {
			logger.Debug("API error", fields...)
		}
	}

	WriteJSON(w, status, body)
}

// WriteErrorMessage 写入简单错误消息
func WriteErrorMessage(w http.ResponseWriter, status int, code types.ErrorCode, message string, logger *zap.Logger) {
	WriteError(w, types.NewError(code, message).WithHTTPStatus(status), logger)
}

// SetCORSHeaders 写入开放的 CORS 头
func SetCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
}

// PostOnly 处理 OPTIONS 预检（204）并拒绝 POST 以外的方法（405）
func PostOnly(next http.HandlerFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetCORSHeaders(w.Header())
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			next(w, r)
		default:
			w.Header().Set("Allow", corsAllowMethods)
			WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrMethodNotAllowed, "Method not allowed", logger)
		}
	}
}

// =============================================================================
// 🛡️ 请求验证辅助函数
// =============================================================================

// DecodeJSONBody 解码 JSON 请求体，失败时写出 400 并返回错误。
// 请求体必须恰好是一个 JSON 值，其后只允许空白。
// 未知字段被忽略，请求体大小由 MaxBytesReader 中间件限制，超限同样返回 400。
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) error {
	if r.Body == nil {
		err := types.NewError(types.ErrInvalidRequest, "Invalid JSON in request body")
		WriteError(w, err, logger)
		return err
	}

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.Join(errTrailingData, extra)
		}
	}
	if err == nil {
		return nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		apiErr := types.NewError(types.ErrInvalidRequest, "Request body too large").WithCause(err)
		WriteError(w, apiErr, logger)
		return apiErr
	}
	apiErr := types.NewError(types.ErrInvalidRequest, "Invalid JSON in request body").WithCause(err)
	WriteError(w, apiErr, logger)
	return apiErr
}

var errTrailingData = errors.New("unexpected data after JSON value")

// =============================================================================
// 📊 响应包装器（用于捕获状态码）
// =============================================================================

// ResponseWriter 包装 http.ResponseWriter 以捕获状态码与写出字节数
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
	Bytes      int64
}

// NewResponseWriter 创建新的 ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

// WriteHeader 重写 WriteHeader 以捕获状态码
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write 重写 Write 以标记已写入
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.Bytes += int64(n)
	return n, err
}

// Unwrap 供 http.ResponseController 访问底层 writer
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
