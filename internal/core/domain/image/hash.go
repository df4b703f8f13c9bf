package image

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// ContentKey returns a deterministic identifier for an image payload.
// The payload length is folded into a second digest pass so that two
// payloads of different size can never share a key even if a first-pass
// digest were truncated somewhere downstream.
func ContentKey(data []byte) string {
	first := sha256.Sum256(data)

	salted := make([]byte, 0, sha256.Size+4)
	salted = append(salted, first[:]...)
	salted = binary.BigEndian.AppendUint32(salted, uint32(len(data)))

	second := sha256.Sum256(salted)
	return hex.EncodeToString(second[:])
}
