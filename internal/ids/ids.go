// Package ids generates the opaque identifiers used to key TaskSpecs and
// Activities. The source relied on a process-wide monotonically increasing
// counter (Task.task_id); per the redesign notes this is replaced with
// locally generated UUIDs and no global mutable state.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New returns a randomly generated UUIDv4 string.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("ids: failed to read random bytes: %v", err))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	var encoded [32]byte
	hex.Encode(encoded[:], b[:])

	return fmt.Sprintf("%s-%s-%s-%s-%s",
		encoded[0:8],
		encoded[8:12],
		encoded[12:16],
		encoded[16:20],
		encoded[20:32],
	)
}
