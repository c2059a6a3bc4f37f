// Package tlsutil 为出站 HTTP 客户端（OpenAI、S3 兼容存储）和 Redis 连接
// 提供安全加固的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
