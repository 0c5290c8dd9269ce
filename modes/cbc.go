package modes

import (
	"fmt"

	"github.com/codahale/aesbreak/internal/mem"
	"github.com/codahale/aesbreak/pkcs7"
)

// CBC is the cipher block chaining mode: each plaintext block is XORed with the previous ciphertext block (or the IV)
// before encryption.
type CBC struct {
	b  Block
	iv []byte
}

// NewCBC returns a CBC mode over b with the given IV, which must be exactly one block long.
func NewCBC(b Block, iv []byte) (*CBC, error) {
	if len(iv) != b.BlockSize() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIVLength, len(iv))
	}
	return &CBC{b: b, iv: mem.Clone(iv)}, nil
}

// BlockSize returns the underlying cipher's block size.
func (m *CBC) BlockSize() int {
	return m.b.BlockSize()
}

// IV returns a copy of the mode's initialization vector.
func (m *CBC) IV() []byte {
	return mem.Clone(m.iv)
}

// Encrypt pads plaintext and encrypts it. It appends the ciphertext to dst and returns the resulting slice.
func (m *CBC) Encrypt(dst, plaintext []byte) ([]byte, error) {
	bs := m.BlockSize()
	padded := pkcs7.Pad(plaintext, bs)
	ret, out := mem.SliceForAppend(dst, len(padded))

	prev := m.iv
	for i := 0; i < len(padded); i += bs {
		block := out[i : i+bs]
		mem.XOR(block, padded[i:i+bs], prev)
		if err := m.b.Encrypt(block, block); err != nil {
			return nil, err
		}
		prev = block
	}
	return ret, nil
}

// Decrypt decrypts ciphertext and strips the padding. It appends the plaintext to dst and returns the resulting slice.
// It returns an error wrapping pkcs7.ErrInvalidPadding if the decrypted padding is malformed.
func (m *CBC) Decrypt(dst, ciphertext []byte) ([]byte, error) {
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

// DecryptBlocks decrypts ciphertext without removing padding.
func (m *CBC) DecryptBlocks(dst, ciphertext []byte) ([]byte, error) {
	bs := m.BlockSize()
	if err := checkCiphertext(ciphertext, bs); err != nil {
		return nil, err
	}

	ret, out := mem.SliceForAppend(dst, len(ciphertext))
	buf := make([]byte, bs)
	prev, next := mem.Clone(m.iv), make([]byte, bs)
	for i := 0; i < len(ciphertext); i += bs {
		// Copy the block first: out may alias ciphertext.
		copy(next, ciphertext[i:i+bs])
		if err := m.b.Decrypt(buf, next); err != nil {
			return nil, err
		}
		mem.XOR(out[i:i+bs], buf, prev)
		prev, next = next, prev
	}
	return ret, nil
}
