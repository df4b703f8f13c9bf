package image_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parkscope/analysis-api/internal/core/domain/image"
)

func TestContentKey_Deterministic(t *testing.T) {
	data := []byte("park scene with trees and a pond")
	require.Equal(t, image.ContentKey(data), image.ContentKey(data))
}

func TestContentKey_DistinctInputs(t *testing.T) {
	a := image.ContentKey([]byte("payload-a"))
	b := image.ContentKey([]byte("payload-b"))
	require.NotEqual(t, a, b)
}

func TestContentKey_HexEncoded256Bits(t *testing.T) {
	key := image.ContentKey([]byte{0x01, 0x02, 0x03})
	require.Len(t, key, 64)
	for _, r := range key {
		require.Contains(t, "0123456789abcdef", string(r))
	}
}

func TestContentKey_EmptyPayload(t *testing.T) {
	key := image.ContentKey(nil)
	require.Len(t, key, 64)
	require.Equal(t, key, image.ContentKey([]byte{}))
}

func TestContentKey_LengthBoundIntoKey(t *testing.T) {
	// A prefix and its extension must not collide even though one is a
	// truncation of the other.
	long := []byte("aaaaaaaaaaaaaaaa")
	short := long[:8]
	require.NotEqual(t, image.ContentKey(short), image.ContentKey(long))
}
