package aes

import "github.com/codahale/aesbreak/internal/gf"

// state is the 4x4 AES state, stored column-major: byte r+4c is row r of column c. It is a value type and is created
// fresh for every block.
type state [BlockSize]byte

func (s *state) addRoundKey(k *[BlockSize]byte) {
	for i := range s {
		s[i] ^= k[i]
	}
}

func (s *state) subBytes() {
	for i := range s {
		s[i] = gf.SubByte(s[i])
	}
}

func (s *state) invSubBytes() {
	for i := range s {
		s[i] = gf.InvSubByte(s[i])
	}
}

// shiftRows rotates row r left by r positions.
func (s *state) shiftRows() {
	t := *s
	for r := 1; r < 4; r++ {
		for c := range 4 {
			s[r+4*c] = t[r+4*((c+r)%4)]
		}
	}
}

// invShiftRows rotates row r right by r positions.
func (s *state) invShiftRows() {
	t := *s
	for r := 1; r < 4; r++ {
		for c := range 4 {
			s[r+4*((c+r)%4)] = t[r+4*c]
		}
	}
}

func (s *state) mixColumns() {
	for c := 0; c < BlockSize; c += 4 {
		a0, a1, a2, a3 := s[c], s[c+1], s[c+2], s[c+3]
		t := a0 ^ a1 ^ a2 ^ a3
		s[c] ^= t ^ gf.Xtime(a0^a1)
		s[c+1] ^= t ^ gf.Xtime(a1^a2)
		s[c+2] ^= t ^ gf.Xtime(a2^a3)
		s[c+3] ^= t ^ gf.Xtime(a3^a0)
	}
}

// invMixColumns multiplies each column by {04}x^2 + {05} and then applies mixColumns, which together equal the inverse
// MixColumns matrix (The Design of Rijndael, Section 4.1.3).
func (s *state) invMixColumns() {
	for c := 0; c < BlockSize; c += 4 {
		u := gf.Xtime(gf.Xtime(s[c] ^ s[c+2]))
		v := gf.Xtime(gf.Xtime(s[c+1] ^ s[c+3]))
		s[c] ^= u
		s[c+1] ^= v
		s[c+2] ^= u
		s[c+3] ^= v
	}
	s.mixColumns()
}
