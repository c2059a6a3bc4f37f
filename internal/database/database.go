package database

import (
	"fmt"
	"net/url"
	"strings"

	glebarez "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	// DriverSQLite is the pure-Go driver, no cgo required.
	DriverSQLite = "sqlite"
	// DriverSQLite3 is the cgo mattn driver.
	DriverSQLite3 = "sqlite3"
)

// Config 数据库配置。Driver 为空表示不启用。
type Config struct {
	// 驱动类型: postgres, mysql, sqlite, sqlite3
	Driver string `yaml:"driver" env:"DRIVER"`
	// DSN 非空时优先使用
	DSN string `yaml:"dsn" env:"DSN"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名，sqlite 驱动下为文件路径
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 启动时执行 GORM AutoMigrate，适合本地 sqlite
	AutoMigrate bool `yaml:"auto_migrate" env:"AUTO_MIGRATE"`

	Pool PoolConfig `yaml:"pool" env:"POOL"`
}

// Enabled 报告是否配置了数据库
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Driver) != ""
}

// BuildDSN 返回 GORM 驱动使用的连接串
func (c Config) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.Driver {
	case DriverPostgres:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			c.User, url.QueryEscape(c.Password), c.Host, c.Port, c.Name)
	case DriverSQLite, DriverSQLite3:
		if c.Name == "" {
			return "productshot.db"
		}
		return c.Name
	default:
		return ""
	}
}

// Dialector 根据驱动选择 GORM 方言
func Dialector(cfg Config) (gorm.Dialector, error) {
	dsn := cfg.BuildDSN()
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "postgresql":
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverSQLite:
		return glebarez.Open(dsn), nil
	case DriverSQLite3:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, mysql, sqlite, sqlite3)", cfg.Driver)
	}
}

// Open 打开数据库连接
func Open(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("database driver not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	logger.Info("database connected", zap.String("driver", cfg.Driver))
	return db, nil
}
