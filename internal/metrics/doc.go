// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、生成流水线、
LLM、对象存储、缓存与数据库。

# 概述

Collector 使用 promauto 自动注册到默认 Registry，所有指标按 namespace
隔离。流水线各组件（storage、refine、synthesis、pipeline）只依赖各自
声明的小接口，Collector 同时满足这些接口。

# 主要能力

  - HTTP 指标：请求总数、耗时、请求/响应体大小，状态码归类为 2xx/3xx/4xx/5xx。
  - 流水线指标：pipeline_requests_total{operation,status}、
    pipeline_step_duration_seconds{step}。
  - 优化与合成：refine_path_total{path}、synthesis_requests_total{mode,status}。
  - 存储指标：storage_uploads_total{bucket,status}、storage_upload_bytes{bucket}。
  - LLM、缓存与数据库指标。
*/
package metrics
