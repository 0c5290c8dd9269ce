// Package oracle contains simulated servers which hold a secret key and expose exactly the capability one of the
// attacks needs: encrypting attacker input wrapped in fixed text, reporting padding validity, editing a stream in place,
// and so on. They are the harness the attacks are tested and demonstrated against.
//
// All servers are safe for concurrent use.
package oracle

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/codahale/aesbreak/aes"
)

// ErrMalformedProfile is returned when a decrypted profile record cannot be parsed.
var ErrMalformedProfile = errors.New("aesbreak/oracle: malformed profile")

// RandomBytes reads n bytes from r. If r is nil, crypto/rand.Reader is used.
func RandomBytes(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		panic("aesbreak/oracle: negative length")
	}
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("aesbreak/oracle: reading random bytes: %w", err)
	}
	return b, nil
}

// RandomKey returns a random AES-128 key read from r, or crypto/rand.Reader if r is nil.
func RandomKey(r io.Reader) ([]byte, error) {
	return RandomBytes(r, 16)
}

func randomIntn(r io.Reader, n int) (int, error) {
	b, err := RandomBytes(r, 1)
	if err != nil {
		return 0, err
	}
	return int(b[0]) % n, nil
}

func newCipher(key []byte) (*aes.Cipher, error) {
	c, err := aes.New(key)
	if err != nil {
		return nil, fmt.Errorf("aesbreak/oracle: %w", err)
	}
	return c, nil
}
