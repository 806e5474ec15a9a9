package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey_DefaultLength(t *testing.T) {
	key, err := GenerateKey(0)
	require.NoError(t, err)
	assert.Len(t, key, DefaultLength)
	assert.True(t, IsValidKey(key))
}

func TestGenerateKey_Lengths(t *testing.T) {
	for _, n := range []int{1, 2, 6, 8, 64, 255, 300, 511} {
		key, err := GenerateKey(n)
		require.NoError(t, err)
		assert.Len(t, key, n)
		assert.True(t, IsValidKey(key), key)
	}
}

func TestGenerateKey_AlphabetAndUniqueness(t *testing.T) {
	const total = 10000
	seen := make(map[string]struct{}, total)
	used := make(map[rune]struct{})
	for i := 0; i < total; i++ {
		key, err := GenerateKey(8)
		require.NoError(t, err)
		require.Len(t, key, 8)
		for _, r := range key {
			require.True(t, strings.ContainsRune(Alphabet, r), "unexpected symbol %q", r)
			used[r] = struct{}{}
		}
		seen[key] = struct{}{}
	}
	// 62^8 空间下一万个样本几乎不可能碰撞
	assert.Len(t, seen, total)
	// 八万个字符应覆盖全部 62 个符号
	assert.Len(t, used, len(Alphabet))
}

func TestIsValidKey(t *testing.T) {
	assert.True(t, IsValidKey("AB12CD"))
	assert.False(t, IsValidKey(""))
	assert.False(t, IsValidKey("AB-12"))
	assert.False(t, IsValidKey("密码"))
}
