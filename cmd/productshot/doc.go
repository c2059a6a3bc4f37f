// Copyright (c) ProductShot Authors.
// Licensed under the MIT License.

/*
Package main 提供 ProductShot 服务端程序入口。

# 概述

cmd/productshot 是产品图生成服务的可执行入口，提供 HTTP API、
历史库迁移、健康检查和版本查询等子命令。配置按 .env → YAML →
环境变量的顺序加载，日志使用 zap，指标通过独立端口暴露给 Prometheus。

# 核心类型

  - Server: 主服务器，按依赖顺序装配存储、缓存、历史库与流水线
  - Middleware: HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve、migrate（up/down/status/version）、version、health
  - 中间件链：Recovery、RequestID、OTelTracing、SecurityHeaders、
    RequestLogger、MetricsMiddleware、CORS、RateLimiter（基于 IP）、
    MaxBodyBytes、Authenticate（X-API-Key / JWT Bearer）
  - Metrics 服务器：独立端口暴露 /metrics
  - 优雅关闭：信号监听 → 逆序关闭监听器 → 关闭缓存、历史库与遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
