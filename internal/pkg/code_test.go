package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationCode(t *testing.T) {
	for _, n := range []int{1, 6, 32} {
		code, err := VerificationCode(n)
		require.NoError(t, err)
		assert.Len(t, code, n)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "非数字字符 %q", c)
		}
	}

	for _, n := range []int{0, -1} {
		code, err := VerificationCode(n)
		assert.ErrorIs(t, err, ErrCodeLength)
		assert.Empty(t, code)
	}
}
