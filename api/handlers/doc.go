// Copyright (c) ProductShot Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 productshot HTTP API 的请求处理器实现。

# 概述

handlers 包实现生成、润色、历史查询、对象回放与健康检查端点。
所有 Handler 均遵循标准 net/http 接口，编排逻辑通过 Pipeline 接口注入。

# 核心类型

  - GenerationHandler: POST /generate 与 POST /refine，含 OPTIONS 预检
  - HistoryHandler: GET /history，未启用历史库时返回 404
  - ObjectHandler: GET /objects/{bucket}/{key}，回放内存存储中的对象
  - HealthHandler: /health、/healthz、/ready、/readyz、/version
  - ResponseWriter: 包装 http.ResponseWriter 以捕获状态码

# 错误格式

4xx 响应体为 {"error": "..."}；5xx 响应体为 {"error": "...", "details": "..."}，
details 为完整错误链。
*/
package handlers
