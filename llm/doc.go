// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 提供统一的语言模型接入层：Provider 抽象、多模态消息与错误语义。

# 概述

本包屏蔽不同模型服务商在接口、鉴权与错误语义上的差异，对上层的
提示词优化服务（refine）暴露一致的请求与响应模型。

# 核心接口

  - [Provider]：聊天补全接口，提供 Completion / HealthCheck / Name
  - [Message] / [ContentPart]：多模态消息，文本与图片段按顺序排列
  - [Error]：Provider 层错误，携带 HTTP 状态与可重试标记

# 子包

  - llm/providers：通用错误映射与 OpenAI 兼容请求结构
  - llm/providers/openai：OpenAI 聊天补全客户端（支持 image_url 段）
  - llm/image：图片生成与编辑 Provider
*/
package llm
