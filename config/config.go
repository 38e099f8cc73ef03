package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	// 服务
	ListenAddr      string // HTTP 监听地址，fcgi 模式下为 FastCGI socket 地址
	Transport       string // http | fcgi
	Workers         int
	QueueSize       int
	ShutdownTimeout time.Duration
	SearchDirs      []string // 相对文件名依次在这些目录中查找

	// 目录数据库
	CatalogDriver string // sqlite | mysql
	CatalogDSN    string // sqlite 文件路径，或完整的 MySQL DSN
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string

	// 用户数据（歌单），空表示不启用
	UserDBDSN string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// 封面缓存
	CoverCacheSize int
	CoverCacheTTL  time.Duration

	// MinIO 媒体源，Endpoint 为空表示不启用
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// 日志
	LogLevel   string
	LogFile    string
	LogConsole bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":4040"),
		Transport:       getEnv("TRANSPORT", "http"),
		Workers:         getEnvInt("WORKERS", 4),
		QueueSize:       getEnvInt("QUEUE_SIZE", 64),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SearchDirs:      getEnvList("SEARCH_DIRS", nil),

		CatalogDriver: getEnv("CATALOG_DRIVER", "sqlite"),
		CatalogDSN:    getEnv("CATALOG_DSN", "music.db"),
		DBHost:        getEnv("DB_HOST", "127.0.0.1"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "root"),
		DBPassword:    os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:        getEnv("DB_NAME", "supersonic"),

		UserDBDSN: getEnv("USERDB_DSN", ""),

		RedisHost:     getEnv("REDIS_HOST", ""), // 默认不使用 Redis
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CoverCacheSize: getEnvInt("COVER_CACHE_SIZE", 512),
		CoverCacheTTL:  getEnvDuration("COVER_CACHE_TTL", 24*time.Hour),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "music"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFile:    getEnv("LOG_FILE", ""),
		LogConsole: getEnvBool("LOG_CONSOLE", false),
	}
}

// Normalize clamps values that would make the server unusable.
func (c *Config) Normalize() {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.QueueSize < 1 {
		c.QueueSize = 1
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if len(c.SearchDirs) == 0 {
		c.SearchDirs = []string{"/"} // 默认数据库里存的是绝对路径
	}
	c.CatalogDriver = strings.ToLower(c.CatalogDriver)
	c.Transport = strings.ToLower(c.Transport)
}
