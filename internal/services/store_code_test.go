package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStoreCode(t *testing.T) {
	t.Run("length and alphabet", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			code, err := GenerateStoreCode()
			require.NoError(t, err)
			require.Len(t, code, 4)
			for _, c := range code {
				assert.True(t, strings.ContainsRune(storeCodeAlphabet, c), "unexpected character %q in %q", c, code)
			}
		}
	})

	t.Run("ambiguous characters never appear", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			code, err := GenerateStoreCode()
			require.NoError(t, err)
			assert.NotContains(t, code, "0")
			assert.NotContains(t, code, "1")
			assert.NotContains(t, code, "I")
			assert.NotContains(t, code, "O")
		}
	})

	t.Run("codes vary", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			code, err := GenerateStoreCode()
			require.NoError(t, err)
			seen[code] = true
		}
		// 32^4 possible codes, 200 draws should not all collide
		assert.Greater(t, len(seen), 150)
	})
}
