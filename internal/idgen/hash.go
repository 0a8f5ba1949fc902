// Package idgen produces opaque, collision-resistant item IDs.
package idgen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/engram-dev/engram/internal/types"
)

// hexChars is the number of hex characters exposed from the digest: an
// eg- id is IDLength characters total, minus the 3-character "eg-" prefix.
const hexChars = types.IDLength - len(types.IDPrefix)

// New generates a new item ID from the given title and creation instant.
// It mixes in monotonic creation nanoseconds and 8 cryptographically random
// bytes before hashing, so two calls with identical title and timestamp
// still yield different IDs — the randomness is mandatory, not a fallback.
//
// Exposing only 40 bits of the digest keeps IDs short; collision
// probability over 10^6 IDs is roughly 2^-20, acceptable for a
// single-host task tracker (see spec §4.1).
func New(title string, createdAt time.Time) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("idgen: read entropy: %w", err)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s|%d", title, createdAt.UnixNano())
	h.Write(nonce)
	digest := h.Sum(nil)

	// 40 bits = 5 bytes = 10 hex characters.
	short := hex.EncodeToString(digest[:5])
	if len(short) < hexChars {
		short = short + "0000000000"[:hexChars-len(short)]
	}
	return types.IDPrefix + short[:hexChars], nil
}
