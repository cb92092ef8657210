package storage

import (
	"crypto/rand"
	"fmt"
	"time"
)

// GenerateID generates a UUIDv7-style identifier: a 48-bit millisecond
// timestamp followed by random bits. IDs are globally unique and sort
// lexically by creation time, which keeps sessions and comments ordered
// without a separate sequence column.
func GenerateID() string {
	return generateIDAt(time.Now())
}

func generateIDAt(t time.Time) string {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		// This should never happen with crypto/rand
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}

	ms := uint64(t.UnixMilli())
	b[0] = byte(ms >> 40)
	b[1] = byte(ms >> 32)
	b[2] = byte(ms >> 24)
	b[3] = byte(ms >> 16)
	b[4] = byte(ms >> 8)
	b[5] = byte(ms)

	// Set version (7) and variant (RFC 4122)
	b[6] = (b[6] & 0x0f) | 0x70
	b[8] = (b[8] & 0x3f) | 0x80

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
