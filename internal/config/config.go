package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper" // 导入 Viper
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	MySQL         MySQLConfig         `mapstructure:"mysql"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AliyunOSS     AliyunOSSConfig     `mapstructure:"aliyun_oss"`
	S3            S3Config            `mapstructure:"s3"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Log           LogConfig           `mapstructure:"log"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Badger        BadgerConfig        `mapstructure:"badger"`
	Share         ShareConfig         `mapstructure:"share"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableSwagger   bool          `mapstructure:"enable_swagger"`
}

// MySQLConfig 数据库配置
// Driver 为 sqlite 时 DSN 是数据库文件路径，便于本地运行
type MySQLConfig struct {
	Driver       string `mapstructure:"driver" validate:"oneof=mysql sqlite"`
	DSN          string `mapstructure:"dsn" validate:"required"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled Redis 地址为空时视为未启用
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: https://oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

// S3Config AWS S3 或兼容服务配置, Endpoint 为空时使用 AWS 官方地址
type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key" validate:"required,min=16"`
	ExpiresIn time.Duration `mapstructure:"expires_in" validate:"gt=0"`
	Issuer    string        `mapstructure:"issuer"`
}

type StorageConfig struct {
	Type               string `mapstructure:"type" validate:"oneof=minio aliyun_oss s3"`
	PresignedURLExpiry int    `mapstructure:"presigned_url_expiry" validate:"min=1"` // 预签名URL有效期（分钟）
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// ElasticsearchConfig 定义 Elasticsearch 连接配置, Addresses 为空时不启用审计镜像
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// BadgerConfig 嵌入式分享存储配置
type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// ShareConfig 分享访问控制策略
type ShareConfig struct {
	Store                   string        `mapstructure:"store" validate:"oneof=gorm redis badger"`
	BaseURL                 string        `mapstructure:"base_url" validate:"required,url"`
	DefaultTTL              time.Duration `mapstructure:"default_ttl" validate:"gt=0"`
	MaxTTL                  time.Duration `mapstructure:"max_ttl" validate:"gtefield=DefaultTTL"`
	KeyLength               int           `mapstructure:"key_length" validate:"min=4,max=64"`
	DownloadURLTTL          time.Duration `mapstructure:"download_url_ttl" validate:"gt=0"`
	UniformDenial           bool          `mapstructure:"uniform_denial"`
	DemoMode                bool          `mapstructure:"demo_mode"`
	SweepInterval           time.Duration `mapstructure:"sweep_interval"`
	Retention               time.Duration `mapstructure:"retention"` // 过期后记录保留时长, 仅用于 redis/badger
	VerifyAttemptsPerMinute int           `mapstructure:"verify_attempts_per_minute" validate:"min=0"`
}

var AppConfig *Config // 全局应用配置实例

// setDefaults 设置默认值 (如果配置文件和环境变量中都没有，则使用这些默认值)
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.enable_swagger", true)
	// 空默认值让 AutomaticEnv 能在 Unmarshal 时感知这些 key
	for _, key := range []string{
		"mysql.dsn", "redis.addr", "redis.password", "jwt.secret_key",
		"minio.endpoint", "minio.access_key_id", "minio.secret_access_key",
		"aliyun_oss.endpoint", "aliyun_oss.access_key_id", "aliyun_oss.secret_access_key",
		"s3.endpoint", "s3.access_key_id", "s3.secret_access_key",
		"elasticsearch.username", "elasticsearch.password",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("mysql.driver", "mysql")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("redis.db", 0)
	v.SetDefault("minio.bucket_name", "mantadrive-users")
	v.SetDefault("aliyun_oss.bucket_name", "mantadrive-users")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket_name", "mantadrive-users")
	v.SetDefault("jwt.expires_in", 24*time.Hour)
	v.SetDefault("jwt.issuer", "mantadrive")
	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.presigned_url_expiry", 15)
	v.SetDefault("log.output_path", "logs/app.log")
	v.SetDefault("log.error_path", "logs/error.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("elasticsearch.index", "share-access")
	v.SetDefault("badger.path", "data/shares")
	v.SetDefault("share.store", "gorm")
	v.SetDefault("share.base_url", "http://localhost:3000")
	v.SetDefault("share.default_ttl", 24*time.Hour)
	v.SetDefault("share.max_ttl", 30*24*time.Hour)
	v.SetDefault("share.key_length", 8)
	v.SetDefault("share.download_url_ttl", 15*time.Minute)
	v.SetDefault("share.uniform_denial", true)
	v.SetDefault("share.demo_mode", false)
	v.SetDefault("share.sweep_interval", 10*time.Minute)
	v.SetDefault("share.retention", 7*24*time.Hour)
	v.SetDefault("share.verify_attempts_per_minute", 10)
}

// LoadConfig 加载配置
// paths 为空时按约定目录查找 config.yaml
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // 配置文件名 (不带扩展名)
	v.SetConfigType("yaml")   // 配置文件类型
	if len(paths) == 0 {
		paths = []string{".", "./configs", "/etc/mantadrive/"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 读取环境变量，例如 MANTADRIVE_SHARE_DEMO_MODE 对应 share.demo_mode
	v.SetEnvPrefix("MANTADRIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// 配置文件存在但格式错误
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件未找到不是致命错误，可以依赖环境变量或默认值
		log.Println("Warning: config file not found, using environment variables or default values.")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	AppConfig = cfg
	log.Println("Configuration loaded successfully with Viper.")
	return cfg, nil
}
