// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BaSui01/productshot/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	t.Setenv(FallbackAPIKeyEnv, "")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "gpt-image-1", cfg.Image.Model)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s
  api_keys: ["k1", "k2"]

llm:
  api_key: "sk-yaml"

image:
  model: "dall-e-3"
  size: "1792x1024"

refine:
  vision_model: "gpt-4o-mini"
  temperature: 0.5

storage:
  driver: "memory"
  public_base_url: "https://cdn.example.com"
  public_urls:
    generated-images: "https://generated.example.com"

pipeline:
  parallel_uploads: true
  upload_concurrency: 8

redis:
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

database:
  driver: "sqlite"
  name: "/tmp/productshot.db"
  pool:
    max_open_conns: 1
    max_idle_conns: 1

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "sk-yaml", cfg.LLM.APIKey)

	assert.Equal(t, "dall-e-3", cfg.Image.Model)
	assert.Equal(t, "1792x1024", cfg.Image.Size)
	assert.Equal(t, "high", cfg.Image.Quality, "未覆盖的字段保留默认值")

	assert.Equal(t, "gpt-4o-mini", cfg.Refine.VisionModel)
	assert.Equal(t, "gpt-4", cfg.Refine.TextModel)
	assert.InDelta(t, 0.5, cfg.Refine.Temperature, 0.0001)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "https://generated.example.com", cfg.Storage.PublicURLs[storage.BucketGeneratedImages])

	assert.True(t, cfg.Pipeline.ParallelUploads)
	assert.Equal(t, 8, cfg.Pipeline.UploadConcurrency)

	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1, cfg.Database.Pool.MaxOpenConns)
	assert.Equal(t, 1, cfg.Database.Pool.MaxIdleConns)
	assert.Equal(t, 30*time.Second, cfg.Database.Pool.HealthCheckInterval)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromEnv(t *testing.T) {
	envVars := map[string]string{
		"PRODUCTSHOT_SERVER_HTTP_PORT":                    "7777",
		"PRODUCTSHOT_SERVER_API_KEYS":                     "a, b ,,c",
		"PRODUCTSHOT_LLM_API_KEY":                         "sk-env",
		"PRODUCTSHOT_IMAGE_TIMEOUT":                       "90s",
		"PRODUCTSHOT_REFINE_TEMPERATURE":                  "0.9",
		"PRODUCTSHOT_STORAGE_ENDPOINT":                    "https://account.r2.cloudflarestorage.com",
		"PRODUCTSHOT_PIPELINE_REFINE_BEFORE_GENERATE":     "true",
		"PRODUCTSHOT_PIPELINE_REQUEST_TIMEOUT":            "2m",
		"PRODUCTSHOT_REDIS_ADDR":                          "env-redis:6379",
		"PRODUCTSHOT_DATABASE_DRIVER":                     "postgres",
		"PRODUCTSHOT_DATABASE_POOL_HEALTH_CHECK_INTERVAL": "0s",
		"PRODUCTSHOT_LOG_LEVEL":                           "warn",
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Server.APIKeys)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Image.Timeout)
	assert.InDelta(t, 0.9, cfg.Refine.Temperature, 0.0001)
	assert.Equal(t, "https://account.r2.cloudflarestorage.com", cfg.Storage.Endpoint)
	assert.True(t, cfg.Pipeline.RefineBeforeGenerate)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.RequestTimeout)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Zero(t, cfg.Database.Pool.HealthCheckInterval)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_FallbackAPIKey(t *testing.T) {
	t.Run("fallback used when unset", func(t *testing.T) {
		t.Setenv("PRODUCTSHOT_LLM_API_KEY", "")
		t.Setenv(FallbackAPIKeyEnv, "sk-fallback")

		cfg, err := NewLoader().Load()
		require.NoError(t, err)
		assert.Equal(t, "sk-fallback", cfg.LLM.APIKey)
	})

	t.Run("prefixed key wins", func(t *testing.T) {
		t.Setenv("PRODUCTSHOT_LLM_API_KEY", "sk-prefixed")
		t.Setenv(FallbackAPIKeyEnv, "sk-fallback")

		cfg, err := NewLoader().Load()
		require.NoError(t, err)
		assert.Equal(t, "sk-prefixed", cfg.LLM.APIKey)
	})
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
server:
  http_port: 8888
image:
  model: "yaml-model"
  size: "512x512"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	t.Setenv("PRODUCTSHOT_SERVER_HTTP_PORT", "9999")
	t.Setenv("PRODUCTSHOT_IMAGE_MODEL", "env-model")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "env-model", cfg.Image.Model)
	// YAML 值应该保留（没有被环境变量覆盖）
	assert.Equal(t, "512x512", cfg.Image.Size)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")
	t.Setenv("MYAPP_STORAGE_DRIVER", "memory")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("PRODUCTSHOT_SERVER_HTTP_PORT", "not-a-number")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRODUCTSHOT_SERVER_HTTP_PORT")
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Server.HTTPPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	t.Setenv("PRODUCTSHOT_SERVER_HTTP_PORT", "80")

	_, err := NewLoader().
		WithValidator(validator).
		Load()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0o644))

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "invalid HTTP port (negative)",
			modify:  func(c *Config) { c.Server.HTTPPort = -1 },
			wantErr: "invalid HTTP port",
		},
		{
			name:    "invalid HTTP port (too large)",
			modify:  func(c *Config) { c.Server.HTTPPort = 70000 },
			wantErr: "invalid HTTP port",
		},
		{
			name:    "metrics port clashes with HTTP port",
			modify:  func(c *Config) { c.Server.MetricsPort = c.Server.HTTPPort },
			wantErr: "metrics port must differ",
		},
		{
			name:    "zero body limit",
			modify:  func(c *Config) { c.Server.MaxBodyBytes = 0 },
			wantErr: "max_body_bytes",
		},
		{
			name:    "zero image timeout",
			modify:  func(c *Config) { c.Image.Timeout = 0 },
			wantErr: "image.timeout must be positive",
		},
		{
			name:    "negative storage timeout",
			modify:  func(c *Config) { c.Storage.Timeout = -time.Second },
			wantErr: "storage.timeout must be positive",
		},
		{
			name:    "zero request timeout",
			modify:  func(c *Config) { c.Pipeline.RequestTimeout = 0 },
			wantErr: "pipeline.request_timeout must be positive",
		},
		{
			name:    "write timeout shorter than request budget",
			modify:  func(c *Config) { c.Server.WriteTimeout = 60 * time.Second },
			wantErr: "server.write_timeout (1m0s) must be at least pipeline.request_timeout (2m50s)",
		},
		{
			name: "write timeout without response margin",
			modify: func(c *Config) {
				c.Pipeline.RequestTimeout = 90 * time.Second
				c.Server.WriteTimeout = 95 * time.Second
			},
			wantErr: "plus 10s",
		},
		{
			name: "write timeout covering request budget",
			modify: func(c *Config) {
				c.Pipeline.RequestTimeout = 90 * time.Second
				c.Server.WriteTimeout = 100 * time.Second
			},
		},
		{
			name:    "invalid temperature (negative)",
			modify:  func(c *Config) { c.Refine.Temperature = -0.5 },
			wantErr: "temperature",
		},
		{
			name:    "invalid temperature (too high)",
			modify:  func(c *Config) { c.Refine.Temperature = 3.0 },
			wantErr: "temperature",
		},
		{
			name:    "unknown storage driver",
			modify:  func(c *Config) { c.Storage.Driver = "gcs" },
			wantErr: "unsupported storage driver",
		},
		{
			name: "unknown bucket override",
			modify: func(c *Config) {
				c.Storage.PublicURLs = map[string]string{"thumbnails": "https://x"}
			},
			wantErr: "unknown bucket",
		},
		{
			name: "parallel uploads without concurrency",
			modify: func(c *Config) {
				c.Pipeline.ParallelUploads = true
				c.Pipeline.UploadConcurrency = 0
			},
			wantErr: "upload_concurrency",
		},
		{
			name:    "unknown database driver",
			modify:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "unsupported database driver",
		},
		{
			name:   "sqlite history enabled",
			modify: func(c *Config) { c.Database.Driver = "sqlite" },
		},
		{
			name: "cache without redis",
			modify: func(c *Config) {
				c.Cache.Enabled = true
				c.Redis.Addr = ""
			},
			wantErr: "cache requires redis.addr",
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "unsupported log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJWTConfig_Enabled(t *testing.T) {
	assert.False(t, JWTConfig{}.Enabled())
	assert.True(t, JWTConfig{Secret: "s"}.Enabled())
	assert.True(t, JWTConfig{PublicKey: "pem"}.Enabled())
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8080\n"), 0o644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 8080, cfg.Server.HTTPPort)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: [yaml"), 0o644))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	t.Setenv("PRODUCTSHOT_IMAGE_QUALITY", "medium")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "medium", cfg.Image.Quality)
}
