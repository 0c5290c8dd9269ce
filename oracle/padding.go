package oracle

import (
	"errors"

	"github.com/codahale/aesbreak/modes"
	"github.com/codahale/aesbreak/pkcs7"
)

// PaddingServer holds a CBC key and IV. It encrypts messages and reports whether a ciphertext decrypts to validly
// padded plaintext, without ever revealing the plaintext.
type PaddingServer struct {
	cbc *modes.CBC
}

// NewPaddingServer returns a PaddingServer with the given key and IV.
func NewPaddingServer(key, iv []byte) (*PaddingServer, error) {
	c, err := newCipher(key)
	if err != nil {
		return nil, err
	}
	cbc, err := modes.NewCBC(c, iv)
	if err != nil {
		return nil, err
	}
	return &PaddingServer{cbc: cbc}, nil
}

// IV returns the server's IV, which is sent alongside every ciphertext.
func (s *PaddingServer) IV() []byte {
	return s.cbc.IV()
}

// Encrypt returns the CBC encryption of plaintext.
func (s *PaddingServer) Encrypt(plaintext []byte) ([]byte, error) {
	return s.cbc.Encrypt(nil, plaintext)
}

// ValidPadding reports whether ciphertext decrypts to correctly padded plaintext. A padding failure is a negative
// answer; anything else, such as a ciphertext of the wrong length, is returned as an error.
func (s *PaddingServer) ValidPadding(ciphertext []byte) (bool, error) {
	_, err := s.cbc.Decrypt(nil, ciphertext)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pkcs7.ErrInvalidPadding):
		return false, nil
	default:
		return false, err
	}
}
