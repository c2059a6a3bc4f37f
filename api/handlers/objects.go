package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/BaSui01/productshot/storage"
	"github.com/BaSui01/productshot/types"
	"go.uber.org/zap"
)

// ObjectHandler 直接回放已存储的对象，供内存后端等没有公开域名的存储使用。
// 路由形如 GET /objects/{bucket}/{key}。
type ObjectHandler struct {
	reader storage.Reader
	logger *zap.Logger
}

// NewObjectHandler 创建对象处理器
func NewObjectHandler(reader storage.Reader, logger *zap.Logger) *ObjectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectHandler{reader: reader, logger: logger}
}

// HandleGet 返回对象内容
func (h *ObjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	bucket := r.PathValue("bucket")
	key := r.PathValue("key")

	if bucket != storage.BucketUserImages && bucket != storage.BucketGeneratedImages {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrInvalidRequest, "Object not found", h.logger)
		return
	}
	if !storage.ValidKey(key) {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrInvalidRequest, "Object not found", h.logger)
		return
	}

	obj, err := h.reader.Get(r.Context(), bucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			WriteErrorMessage(w, http.StatusNotFound, types.ErrInvalidRequest, "Object not found", h.logger)
			return
		}
		WriteError(w, types.NewError(types.ErrInternalError, "Failed to read object").WithCause(err), h.logger)
		return
	}

	header := w.Header()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.Itoa(len(obj.Data)))
	header.Set("X-Content-Type-Options", "nosniff")
	if obj.CacheControl != "" {
		header.Set("Cache-Control", storage.CacheControlHeader(obj.CacheControl))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(obj.Data)
	}
}
