package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate 校验配置结构体上的 validate 标签, 并检查所选存储后端的必填项
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				msgs = append(msgs, fmt.Sprintf("%s: 不满足规则 '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("配置校验失败: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("配置校验失败: %w", err)
	}

	switch cfg.Storage.Type {
	case "minio":
		if cfg.MinIO.Endpoint == "" || cfg.MinIO.BucketName == "" {
			return errors.New("配置校验失败: minio 需要 endpoint 和 bucket_name")
		}
	case "aliyun_oss":
		if cfg.AliyunOSS.Endpoint == "" || cfg.AliyunOSS.BucketName == "" {
			return errors.New("配置校验失败: aliyun_oss 需要 endpoint 和 bucket_name")
		}
	case "s3":
		if cfg.S3.BucketName == "" {
			return errors.New("配置校验失败: s3 需要 bucket_name")
		}
	}

	if cfg.Share.Store == "redis" && !cfg.Redis.Enabled() {
		return errors.New("配置校验失败: share.store=redis 需要配置 redis.addr")
	}
	if cfg.Share.Store == "badger" && !cfg.Badger.InMemory && cfg.Badger.Path == "" {
		return errors.New("配置校验失败: share.store=badger 需要 badger.path 或 badger.in_memory")
	}
	return nil
}
