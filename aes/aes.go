// Package aes implements the AES block cipher (FIPS 197) for 128-, 192-, and 256-bit keys.
//
// The implementation follows the specification's byte-oriented description directly: a per-call 4x4 state, table
// S-box lookups, and MixColumns via xtime. It makes no attempt to resist timing or cache side channels and is intended
// for studying the cipher and the attacks on its modes of operation.
package aes

import (
	"errors"
	"fmt"

	"github.com/codahale/aesbreak/internal/gf"
)

// BlockSize is the AES block size in bytes. It is the same for every key size.
const BlockSize = 16

var (
	// ErrInvalidKeyLength is returned when a key is not 16, 24, or 32 bytes long.
	ErrInvalidKeyLength = errors.New("aesbreak/aes: invalid key length")

	// ErrInvalidBlockLength is returned when an input block is not exactly BlockSize bytes or an output block is
	// shorter than BlockSize.
	ErrInvalidBlockLength = errors.New("aesbreak/aes: invalid block length")
)

// A Cipher is an AES instance with an expanded key schedule. It is immutable after construction and safe for
// concurrent use.
type Cipher struct {
	nr        int
	roundKeys [][BlockSize]byte
}

// New returns a Cipher using the given key, which must be 16, 24, or 32 bytes long. The key schedule is expanded once
// here and reused for every block.
func New(key []byte) (*Cipher, error) {
	var nr int
	switch len(key) {
	case 16:
		nr = 10
	case 24:
		nr = 12
	case 32:
		nr = 14
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidKeyLength, len(key))
	}
	return &Cipher{nr: nr, roundKeys: expandKey(key, nr)}, nil
}

// BlockSize returns BlockSize.
func (c *Cipher) BlockSize() int {
	return BlockSize
}

// Rounds returns the number of rounds (Nr) for the cipher's key size.
func (c *Cipher) Rounds() int {
	return c.nr
}

// Encrypt encrypts the single block src into dst. The slices may overlap entirely.
func (c *Cipher) Encrypt(dst, src []byte) error {
	if len(src) != BlockSize || len(dst) < BlockSize {
		return fmt.Errorf("%w: src=%d dst=%d", ErrInvalidBlockLength, len(src), len(dst))
	}

	var s state
	copy(s[:], src)

	s.addRoundKey(&c.roundKeys[0])
	for i := 1; i < c.nr; i++ {
		s.subBytes()
		s.shiftRows()
		s.mixColumns()
		s.addRoundKey(&c.roundKeys[i])
	}
	s.subBytes()
	s.shiftRows()
	s.addRoundKey(&c.roundKeys[c.nr])

	copy(dst, s[:])
	return nil
}

// Decrypt decrypts the single block src into dst. The slices may overlap entirely.
func (c *Cipher) Decrypt(dst, src []byte) error {
	if len(src) != BlockSize || len(dst) < BlockSize {
		return fmt.Errorf("%w: src=%d dst=%d", ErrInvalidBlockLength, len(src), len(dst))
	}

	var s state
	copy(s[:], src)

	s.addRoundKey(&c.roundKeys[c.nr])
	s.invShiftRows()
	s.invSubBytes()
	for i := c.nr - 1; i > 0; i-- {
		s.addRoundKey(&c.roundKeys[i])
		s.invMixColumns()
		s.invShiftRows()
		s.invSubBytes()
	}
	s.addRoundKey(&c.roundKeys[0])

	copy(dst, s[:])
	return nil
}

// expandKey derives the nr+1 round keys from key, word by word.
func expandKey(key []byte, nr int) [][BlockSize]byte {
	nk := len(key) / 4
	total := 4 * (nr + 1)
	w := make([][4]byte, total)
	for i := range nk {
		copy(w[i][:], key[4*i:])
	}

	for i := nk; i < total; i++ {
		temp := w[i-1]
		switch {
		case i%nk == 0:
			// RotWord, SubWord, Rcon
			temp = [4]byte{temp[1], temp[2], temp[3], temp[0]}
			subWord(&temp)
			temp[0] ^= gf.Rcon(i / nk)
		case nk > 6 && i%nk == 4:
			subWord(&temp)
		}
		for j := range 4 {
			w[i][j] = w[i-nk][j] ^ temp[j]
		}
	}

	roundKeys := make([][BlockSize]byte, nr+1)
	for i := range roundKeys {
		for j := range 4 {
			copy(roundKeys[i][4*j:], w[4*i+j][:])
		}
	}
	return roundKeys
}

func subWord(w *[4]byte) {
	for i := range w {
		w[i] = gf.SubByte(w[i])
	}
}
