// Copyright 2026 ProductShot Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 providers 提供跨模型服务商的通用适配能力，是具体 Provider 实现
（openai 聊天补全、image 图片生成）的公共基础层。

# 核心类型

  - BaseProviderConfig: 所有 Provider 共享的基础配置（APIKey、BaseURL、Model、Timeout）
  - OpenAICompat* 系列: OpenAI 兼容 API 的请求/响应结构体，含多模态 content 段

# 核心函数

  - MapHTTPError: 将 HTTP 状态码映射为语义化的 llm.Error（含 Retryable 标记）
  - ReadErrorMessage: 从错误响应体中提取可读消息
  - TransportError: 网络层错误包装
  - ConvertMessagesToOpenAI / ToLLMChatResponse: 消息格式互转
*/
package providers
