package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Cache   CacheConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// StorageConfig selects and configures the persistence backend. Driver is
// one of memory, file, sqlite3, postgres, pgx, redis, minio.
type StorageConfig struct {
	Driver     string
	Dir        string
	SQLitePath string
	Database   DatabaseConfig
	Redis      RedisConfig
	Minio      MinioConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	URL       string
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type CacheConfig struct {
	Enabled             bool
	DashboardTTLSeconds int
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		SetDefaults(v)
		v.AutomaticEnv()

		instance = FromViper(v)

		if instance.Storage.Driver == "file" {
			ensureDir(instance.Storage.Dir)
		}
	})

	return instance
}

// SetDefaults registers the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("STORAGE_DRIVER", "file")
	v.SetDefault("STORAGE_DIR", "./data/stockwatch")
	v.SetDefault("SQLITE_PATH", "./data/stockwatch.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stockwatch")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "stockwatch:")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "stockwatch")
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_PREFIX", "")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Storage: StorageConfig{
			Driver:     v.GetString("STORAGE_DRIVER"),
			Dir:        v.GetString("STORAGE_DIR"),
			SQLitePath: v.GetString("SQLITE_PATH"),
			Database: DatabaseConfig{
				Host:     v.GetString("DB_HOST"),
				Port:     v.GetString("DB_PORT"),
				User:     v.GetString("DB_USER"),
				Password: v.GetString("DB_PASSWORD"),
				DBName:   v.GetString("DB_NAME"),
				SSLMode:  v.GetString("DB_SSLMODE"),
			},
			Redis: RedisConfig{
				URL:       v.GetString("REDIS_URL"),
				Host:      v.GetString("REDIS_HOST"),
				Port:      v.GetString("REDIS_PORT"),
				Password:  v.GetString("REDIS_PASSWORD"),
				DB:        v.GetInt("REDIS_DB"),
				KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
			},
			Minio: MinioConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: v.GetString("MINIO_SECRET_KEY"),
				Bucket:    v.GetString("MINIO_BUCKET"),
				Region:    v.GetString("MINIO_REGION"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
				Prefix:    v.GetString("MINIO_PREFIX"),
			},
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			DashboardTTLSeconds: v.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
