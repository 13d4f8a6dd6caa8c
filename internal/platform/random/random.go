// Package random generates the short lowercase alphanumeric tokens used for
// verification/reset links, slug disambiguation and opaque response tokens.
package random

import (
	"crypto/rand"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// String returns n random characters drawn from [a-z0-9].
func String(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform entropy source is
			// broken; nothing sensible to return.
			panic(err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
