// README: Shared identifier type and generator.
package types

import (
	"crypto/rand"
	"encoding/hex"
)

type ID string

func (id ID) String() string { return string(id) }

// NewID returns a 32-char hex identifier, used for error events and other
// records the pipeline itself creates. Order IDs are caller-supplied and do
// not go through here.
func NewID() ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return ID(hex.EncodeToString(b[:]))
}
