package modes

import (
	"encoding/binary"
	"fmt"

	"github.com/codahale/aesbreak/internal/mem"
)

// NonceSize is the size of a CTR nonce in bytes.
const NonceSize = 8

// CTR is the counter mode. The keystream is the encryption of successive counter blocks laid out as
//
//	nonce (8 bytes) || block counter (8 bytes, little-endian, starting at 0)
//
// Encryption and decryption are the same operation.
type CTR struct {
	b     Block
	nonce [NonceSize]byte
}

// NewCTR returns a CTR mode over b with the given nonce, which must be NonceSize bytes long. The underlying cipher must
// have a 16-byte block.
func NewCTR(b Block, nonce []byte) (*CTR, error) {
	if b.BlockSize() != 16 {
		panic("aesbreak/modes: CTR requires a 16-byte block cipher")
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNonceLength, len(nonce))
	}
	m := &CTR{b: b}
	copy(m.nonce[:], nonce)
	return m, nil
}

// XORKeyStream XORs src with the keystream starting at offset zero. It appends the result to dst and returns the
// resulting slice.
func (m *CTR) XORKeyStream(dst, src []byte) ([]byte, error) {
	return m.XORKeyStreamAt(dst, src, 0)
}

// XORKeyStreamAt XORs src with the keystream starting at the given absolute byte offset. It appends the result to dst
// and returns the resulting slice.
func (m *CTR) XORKeyStreamAt(dst, src []byte, offset uint64) ([]byte, error) {
	ret, out := mem.SliceForAppend(dst, len(src))

	var counter, keystream [16]byte
	copy(counter[:NonceSize], m.nonce[:])

	block := offset / 16
	skip := int(offset % 16)
	for len(src) > 0 {
		binary.LittleEndian.PutUint64(counter[NonceSize:], block)
		if err := m.b.Encrypt(keystream[:], counter[:]); err != nil {
			return nil, err
		}
		n := mem.XOR(out, src, keystream[skip:])
		out, src = out[n:], src[n:]
		block++
		skip = 0
	}
	return ret, nil
}

// Edit returns a copy of ciphertext in which the plaintext starting at offset has been replaced with newtext. This is
// the "random access read/write" operation of a seekable CTR stream.
func (m *CTR) Edit(ciphertext []byte, offset int, newtext []byte) ([]byte, error) {
	if offset < 0 || offset > len(ciphertext) || len(newtext) > len(ciphertext)-offset {
		return nil, fmt.Errorf("%w: offset=%d len=%d size=%d", ErrEditOutOfRange, offset, len(newtext), len(ciphertext))
	}

	out := mem.Clone(ciphertext)
	if _, err := m.XORKeyStreamAt(out[:offset], newtext, uint64(offset)); err != nil {
		return nil, err
	}
	return out, nil
}
