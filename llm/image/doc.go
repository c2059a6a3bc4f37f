// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 image 提供图像生成服务的统一抽象：文生图与多图参考编辑。

# 概述

本包屏蔽图像生成服务商在 API 协议与响应结构上的差异，
对上层的合成服务（synthesis）暴露一致的请求/响应模型。

# 核心接口

  - Provider：包含 Generate（文生图）、Edit（多图参考编辑）与 Name。
  - GenerateRequest / EditRequest：请求模型，支持尺寸、质量、数量。
  - GenerateResponse / ImageData：结果图像，b64_json 或 url 二选一。
  - InputImage：编辑请求中的一张输入图，以 image[] 字段提交。

# 主要能力

  - OpenAIProvider：/v1/images/generations 与 /v1/images/edits。
  - 错误统一映射为 llm.Error，保留上游原始消息。
  - Fetch：下载只返回 URL 的结果图。
*/
package image
