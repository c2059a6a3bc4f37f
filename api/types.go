package api

import (
	"strings"

	"github.com/BaSui01/productshot/types"
)

// =============================================================================
// 路由
// =============================================================================

// HTTP 路由路径。别名与主路径共享同一处理器。
const (
	PathGenerate      = "/generate"
	PathRefine        = "/refine"
	PathGenerateAlias = "/api/generate-thumbnail"
	PathRefineAlias   = "/api/refine-prompt"
	PathHistory       = "/history"
	PathObjects       = "/objects/"

	PathHealth  = "/health"
	PathHealthz = "/healthz"
	PathReady   = "/ready"
	PathReadyz  = "/readyz"
	PathVersion = "/version"
	PathMetrics = "/metrics"
)

// GeneratePaths 返回生成端点及其别名
func GeneratePaths() []string {
	return []string{PathGenerate, PathGenerateAlias}
}

// RefinePaths 返回提示词优化端点及其别名
func RefinePaths() []string {
	return []string{PathRefine, PathRefineAlias}
}

// PublicPaths 是无需认证即可访问的路径
func PublicPaths() []string {
	return []string{PathHealth, PathHealthz, PathReady, PathReadyz, PathVersion, PathMetrics}
}

// IsPublicPath 报告 path 是否免认证。对象回放路径也视为公开，
// 因为生成结果的 URL 会直接交给浏览器加载。
func IsPublicPath(path string) bool {
	for _, p := range PublicPaths() {
		if path == p {
			return true
		}
	}
	return strings.HasPrefix(path, PathObjects)
}

// =============================================================================
// 请求 / 响应模型
// =============================================================================

// GenerateRequest 生成请求体。
// @Description 生成请求
type GenerateRequest = types.GenerationRequest

// GenerateResponse 生成响应体。
// @Description 生成响应
type GenerateResponse = types.GenerationResponse

// RefineRequest 提示词优化请求体。
// @Description 提示词优化请求
type RefineRequest = types.RefinementRequest

// RefineResponse 提示词优化响应体。
// @Description 提示词优化响应
type RefineResponse = types.RefinementResponse

// ErrorResponse 统一错误体，details 仅在 5xx 时出现。
// @Description 错误响应
type ErrorResponse = types.ErrorResponse
