package studio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskKey(t *testing.T) {
	t.Run("EmptyStaysEmpty", func(t *testing.T) {
		require.Equal(t, "", MaskKey(""))
	})

	t.Run("ShortKeyPadsToFloor", func(t *testing.T) {
		require.Equal(t, strings.Repeat("•", 6), MaskKey("ab"))
	})

	t.Run("MidLengthMatchesRuneCount", func(t *testing.T) {
		key := "sk-0123456789"
		require.Equal(t, strings.Repeat("•", 13), MaskKey(key))
	})

	t.Run("LongKeyClampsToCeiling", func(t *testing.T) {
		require.Equal(t, strings.Repeat("•", 32), MaskKey(strings.Repeat("x", 200)))
	})

	t.Run("CountsRunesNotBytes", func(t *testing.T) {
		// 8 runes, more than 8 bytes.
		require.Equal(t, strings.Repeat("•", 8), MaskKey("ключ-key"))
	})

	t.Run("NeverEchoesInput", func(t *testing.T) {
		masked := MaskKey("sk-super-secret-value")
		require.NotContains(t, masked, "secret")
	})
}
