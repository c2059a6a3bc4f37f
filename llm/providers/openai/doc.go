// Copyright 2026 ProductShot Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 openai 提供 OpenAI Chat Completions 的 Provider 实现，供提示词优化服务使用。
用户消息可以携带 image_url 段（data URL + detail），用于视觉模型读取参考图。

# 核心结构体

  - Config: APIKey、BaseURL、Model、Timeout、Organization 与端点路径
  - Provider: 实现 llm.Provider（Completion、HealthCheck、Name）

# 错误语义

上游 4xx/5xx 通过 providers.MapHTTPError 转换为 llm.Error；网络错误转换为
可重试的 LLM_UPSTREAM_ERROR；未配置 API Key 时返回 LLM_PROVIDER_UNAVAILABLE，
不会发出任何请求。
*/
package openai
