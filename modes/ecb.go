package modes

import (
	"github.com/codahale/aesbreak/internal/mem"
	"github.com/codahale/aesbreak/pkcs7"
)

// ECB is the electronic codebook mode: every block is encrypted independently, so equal plaintext blocks produce equal
// ciphertext blocks under the same key.
type ECB struct {
	b Block
}

// NewECB returns an ECB mode over b.
func NewECB(b Block) *ECB {
	return &ECB{b: b}
}

// BlockSize returns the underlying cipher's block size.
func (m *ECB) BlockSize() int {
	return m.b.BlockSize()
}

// Encrypt pads plaintext and encrypts each block. It appends the ciphertext to dst and returns the resulting slice.
func (m *ECB) Encrypt(dst, plaintext []byte) ([]byte, error) {
	return m.EncryptBlocks(dst, pkcs7.Pad(plaintext, m.BlockSize()))
}

// Decrypt decrypts each block of ciphertext and strips the padding. It appends the plaintext to dst and returns the
// resulting slice.
func (m *ECB) Decrypt(dst, ciphertext []byte) ([]byte, error) {
	ret, err := m.DecryptBlocks(dst, ciphertext)
	if err != nil {
		return nil, err
	}
	plaintext, err := pkcs7.Unpad(ret[len(dst):], m.BlockSize())
	if err != nil {
		return nil, err
	}
	return ret[:len(dst)+len(plaintext)], nil
}

// EncryptBlocks encrypts block-aligned data without padding.
func (m *ECB) EncryptBlocks(dst, src []byte) ([]byte, error) {
	return m.crypt(dst, src, m.b.Encrypt)
}

// DecryptBlocks decrypts block-aligned data without removing padding.
func (m *ECB) DecryptBlocks(dst, src []byte) ([]byte, error) {
	return m.crypt(dst, src, m.b.Decrypt)
}

func (m *ECB) crypt(dst, src []byte, f func(dst, src []byte) error) ([]byte, error) {
	bs := m.BlockSize()
	if err := checkCiphertext(src, bs); err != nil {
		return nil, err
	}

	ret, out := mem.SliceForAppend(dst, len(src))
	for i := 0; i < len(src); i += bs {
		if err := f(out[i:i+bs], src[i:i+bs]); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
