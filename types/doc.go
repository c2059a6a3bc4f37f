// Copyright (c) ProductShot Authors.
// Licensed under the MIT License.

/*
Package types 提供 productshot 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 pipeline、refine、synthesis、
storage、api 等上层模块提供统一的请求/响应契约与错误码。

# 核心类型

  - GenerationRequest / GenerationResponse: POST /generate 的请求与响应
  - RefinementRequest / RefinementResponse: POST /refine 的请求与响应
  - ErrorResponse: 统一错误体 {error, details}
  - Error / ErrorCode: 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记

# 主要能力

  - 错误工具链：AsError / IsErrorCode / GetErrorCode / StatusForCode
  - 常用错误构造：NewValidationError / NewConfigurationError / NewDecodeError
*/
package types
