// Package keygen 生成分享访问码和分享ID
package keygen

import (
	"fmt"
	"strings"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	// Alphabet 访问码字符集: 大小写字母和数字, 共 62 个
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	DefaultLength = 8

	// nanoid 单次生成长度范围
	minChunk = 2
	maxChunk = 255
)

// GenerateKey 生成指定长度的随机访问码, length <= 0 时使用默认长度
func GenerateKey(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	var b strings.Builder
	b.Grow(length)
	for remaining := length; remaining > 0; {
		n := remaining
		if n > maxChunk {
			n = maxChunk
		}
		if n < minChunk {
			n = minChunk
		}
		gen, err := nanoid.CustomASCII(Alphabet, n)
		if err != nil {
			return "", fmt.Errorf("keygen: 创建生成器失败: %w", err)
		}
		chunk := gen()
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
		}
		b.WriteString(chunk)
		remaining -= len(chunk)
	}
	return b.String(), nil
}

// IsValidKey 判断字符串是否只由字符集中的字符组成
func IsValidKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if strings.IndexByte(Alphabet, key[i]) < 0 {
			return false
		}
	}
	return true
}
