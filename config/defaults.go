// =============================================================================
// 📦 productshot 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/productshot/internal/database"
	"github.com/BaSui01/productshot/pipeline"
	"github.com/BaSui01/productshot/refine"
	"github.com/BaSui01/productshot/storage"
	"github.com/BaSui01/productshot/synthesis"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		LLM:       DefaultLLMConfig(),
		Image:     synthesis.DefaultConfig(),
		Refine:    refine.DefaultConfig(),
		Storage:   storage.DefaultConfig(),
		Pipeline:  pipeline.DefaultConfig(),
		Redis:     DefaultRedisConfig(),
		Cache:     DefaultCacheConfig(),
		Database:  DefaultDatabaseConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:    8080,
		MetricsPort: 9091,
		ReadTimeout: 30 * time.Second,
		// 图像合成可能超过一分钟
		WriteTimeout:    180 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxBodyBytes:    32 << 20,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL: "https://api.openai.com",
		Timeout: 2 * time.Minute,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultCacheConfig 返回默认缓存配置，默认关闭
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:   false,
		KeyPrefix: "productshot:",
		RefineTTL: 24 * time.Hour,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置，driver 为空即不记录生成历史
func DefaultDatabaseConfig() database.Config {
	return database.Config{
		Host:    "localhost",
		SSLMode: "disable",
		Pool:    database.DefaultPoolConfig(),
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "productshot",
		SampleRate:   0.1,
	}
}
