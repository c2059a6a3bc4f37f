package config

import (
	"testing"
	"time"

	"github.com/BaSui01/productshot/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, LLMConfig{}, cfg.LLM)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, CacheConfig{}, cfg.Cache)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEmpty(t, cfg.Image.Model)
	assert.NotEmpty(t, cfg.Refine.VisionModel)
	assert.NotEmpty(t, cfg.Storage.Driver)
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

// --- Individual Default*Config functions ---

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Greater(t, cfg.WriteTimeout, DefaultConfig().Image.Timeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(32<<20), cfg.MaxBodyBytes)
	assert.Empty(t, cfg.APIKeys)
	assert.False(t, cfg.JWT.Enabled())
}

func TestDefaultLLMConfig(t *testing.T) {
	cfg := DefaultLLMConfig()
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "https://api.openai.com", cfg.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
}

func TestDefaultPipelineSection(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Pipeline.RequireReferences)
	assert.False(t, cfg.Pipeline.RefineBeforeGenerate)
	assert.False(t, cfg.Pipeline.ParallelUploads)
	assert.Equal(t, 4, cfg.Pipeline.UploadConcurrency)
	assert.Equal(t, 170*time.Second, cfg.Pipeline.RequestTimeout)
	assert.GreaterOrEqual(t, cfg.Server.WriteTimeout, cfg.Pipeline.RequestTimeout+ResponseWriteMargin)
}

func TestDefaultImageAndRefineSections(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gpt-image-1", cfg.Image.Model)
	assert.Equal(t, "1024x1024", cfg.Image.Size)
	assert.Equal(t, "high", cfg.Image.Quality)

	assert.Equal(t, "gpt-4o", cfg.Refine.VisionModel)
	assert.Equal(t, "gpt-4", cfg.Refine.TextModel)
	assert.InDelta(t, 0.7, cfg.Refine.Temperature, 0.0001)
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 2, cfg.MinIdleConns)
}

func TestDefaultCacheConfig(t *testing.T) {
	cfg := DefaultCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "productshot:", cfg.KeyPrefix)
	assert.Equal(t, 24*time.Hour, cfg.RefineTTL)
}

func TestDefaultDatabaseConfig(t *testing.T) {
	cfg := DefaultDatabaseConfig()
	assert.False(t, cfg.Enabled(), "history is off until a driver is chosen")
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, database.DefaultPoolConfig(), cfg.Pool)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "productshot", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.001)
}
