package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Run("Length", func(t *testing.T) {
		assert.Len(t, String(10), 10)
		assert.Len(t, String(20), 20)
		assert.Empty(t, String(0))
	})

	t.Run("Charset", func(t *testing.T) {
		token := String(200)
		for _, r := range token {
			assert.True(t, strings.ContainsRune("abcdefghijklmnopqrstuvwxyz0123456789", r),
				"unexpected rune %q", r)
		}
	})

	t.Run("NotConstant", func(t *testing.T) {
		assert.NotEqual(t, String(20), String(20))
	})
}
