package environment

import (
	"crypto/rand"
	"fmt"
	"io"
)

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SecretLength is the length of generated encryption keys.
const SecretLength = 64

// MinSecretLength is the shortest key GenerateSecret will produce.
const MinSecretLength = 32

// GenerateSecret returns an n-character alphanumeric string read from r,
// or from crypto/rand when r is nil. Bytes that would bias the alphabet
// are discarded.
func GenerateSecret(r io.Reader, n int) (string, error) {
	if n < MinSecretLength {
		return "", fmt.Errorf("secret length %d below minimum %d", n, MinSecretLength)
	}
	if r == nil {
		r = rand.Reader
	}

	// Largest multiple of the alphabet size that fits in a byte.
	limit := byte(256 - 256%len(secretAlphabet))

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, secretAlphabet[int(b)%len(secretAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
